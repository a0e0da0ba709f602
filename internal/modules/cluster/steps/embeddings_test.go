package steps

import (
	"math"
	"testing"
)

func TestParseEmbedding_JSONArray(t *testing.T) {
	emb, ok := ParseEmbedding([]byte("[0.1, 0.2, 0.3]"))
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if len(emb) != 3 {
		t.Fatalf("expected 3 dims, got %d", len(emb))
	}
	if math.Abs(float64(emb[1])-0.2) > 1e-6 {
		t.Fatalf("expected 0.2 at index 1, got %v", emb[1])
	}
}

func TestParseEmbedding_BracketedText(t *testing.T) {
	// pgvector-style text representation round-tripped through a string
	// column.
	emb, ok := ParseEmbedding([]byte(`"ignored"`))
	if ok {
		t.Fatalf("quoted string should not parse, got %v", emb)
	}
	emb, ok = ParseEmbedding([]byte("[1.5,-2.5,0]"))
	if !ok {
		t.Fatalf("expected bracketed text to parse")
	}
	if emb[0] != 1.5 || emb[1] != -2.5 || emb[2] != 0 {
		t.Fatalf("unexpected values: %v", emb)
	}
}

func TestParseEmbedding_Invalid(t *testing.T) {
	cases := [][]byte{nil, []byte(""), []byte("null"), []byte("not a vector"), []byte("[]"), []byte("{}")}
	for _, raw := range cases {
		if emb, ok := ParseEmbedding(raw); ok {
			t.Fatalf("expected %q to be rejected, got %v", raw, emb)
		}
	}
}

func TestNormalizeUnit(t *testing.T) {
	v := NormalizeUnit([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Fatalf("unexpected normalized vector: %v", v)
	}

	zero := NormalizeUnit([]float32{0, 0, 0})
	for _, x := range zero {
		if x != 0 {
			t.Fatalf("zero vector should stay zero, got %v", zero)
		}
	}
}

func TestMeanVector_SkipsMismatchedDims(t *testing.T) {
	mean, ok := MeanVector([][]float32{{2, 0}, {0, 2}, {1, 2, 3}})
	if !ok {
		t.Fatalf("expected mean to exist")
	}
	if mean[0] != 1 || mean[1] != 1 {
		t.Fatalf("unexpected mean: %v", mean)
	}

	if _, ok := MeanVector(nil); ok {
		t.Fatalf("empty input should have no mean")
	}
}

func TestUnitCosine(t *testing.T) {
	a := NormalizeUnit([]float32{1, 2, 3})
	if sim := UnitCosine(a, a); math.Abs(sim-1) > 1e-5 {
		t.Fatalf("self similarity should be 1, got %v", sim)
	}
	x := []float32{1, 0}
	y := []float32{0, 1}
	if sim := UnitCosine(x, y); math.Abs(sim) > 1e-5 {
		t.Fatalf("orthogonal similarity should be 0, got %v", sim)
	}
	if sim := UnitCosine(x, []float32{1, 0, 0}); sim != 0 {
		t.Fatalf("dimension mismatch should yield 0, got %v", sim)
	}
}
