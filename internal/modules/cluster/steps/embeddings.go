package steps

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/viant/vec/search"
)

// ParseEmbedding accepts the raw embedding representations upstream sources
// produce: a JSON float array, a bracketed comma-separated string, or nothing.
// Anything unparseable returns (nil, false); the caller drops the memory
// rather than failing the run.
func ParseEmbedding(raw []byte) ([]float32, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, false
	}
	var tmp []float64
	if err := json.Unmarshal([]byte(trimmed), &tmp); err == nil {
		if len(tmp) == 0 {
			return nil, false
		}
		out := make([]float32, len(tmp))
		for i, f := range tmp {
			out[i] = float32(f)
		}
		return out, true
	}
	// Some stores hand the vector back as text, e.g. "[0.1, 0.2, ...]".
	trimmed = strings.Trim(trimmed, "[]")
	parts := strings.Split(trimmed, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, false
		}
		out = append(out, float32(f))
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// NormalizeUnit scales v to unit length. A zero vector is returned unchanged
// (treated as having norm 1) so downstream dot products stay finite.
func NormalizeUnit(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum <= 0 {
		return v
	}
	den := float32(1.0 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i := range v {
		out[i] = v[i] * den
	}
	return out
}

// MeanVector averages same-dimension vectors, skipping mismatched rows.
func MeanVector(vs [][]float32) ([]float32, bool) {
	if len(vs) == 0 {
		return nil, false
	}
	var dim int
	for _, v := range vs {
		if len(v) > 0 {
			dim = len(v)
			break
		}
	}
	if dim == 0 {
		return nil, false
	}
	sum := make([]float64, dim)
	n := 0
	for _, v := range vs {
		if len(v) != dim {
			continue
		}
		for i := 0; i < dim; i++ {
			sum[i] += float64(v[i])
		}
		n++
	}
	if n == 0 {
		return nil, false
	}
	out := make([]float32, dim)
	for i := 0; i < dim; i++ {
		out[i] = float32(sum[i] / float64(n))
	}
	return out, true
}

// UnitCosine is the similarity kernel for vectors already normalized to unit
// length. CosineDistance is the one spelling the SIMD package exports on both
// arm64 and the pure-Go fallback; with unit inputs its magnitude computation
// reduces to the plain dot product.
func UnitCosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	return 1 - float64(search.Float32s(a).CosineDistance(b))
}
