package runtime

import (
	"context"
	"errors"
	"testing"
)

type stubHandler struct {
	typ string
	run func(*Context) error
}

func (h *stubHandler) Type() string { return h.typ }

func (h *stubHandler) Run(c *Context) error {
	if h.run != nil {
		return h.run(c)
	}
	return nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubHandler{typ: "cluster_build"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, ok := r.Get("cluster_build"); !ok {
		t.Fatalf("registered handler not found")
	}
	if _, ok := r.Get("unknown"); ok {
		t.Fatalf("unexpected handler for unknown type")
	}
}

func TestRegistry_RejectsDuplicatesAndNil(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
	if err := r.Register(&stubHandler{typ: ""}); err == nil {
		t.Fatalf("expected error for empty type")
	}
	if err := r.Register(&stubHandler{typ: "x"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&stubHandler{typ: "x"}); err == nil {
		t.Fatalf("expected error for duplicate type")
	}
}

func TestContext_ReportCarriesOutcome(t *testing.T) {
	jc := NewContext(context.Background(), nil)
	jc.Progress("load", 10, "loading")
	jc.Progress("compute", 60, "computing")
	jc.Succeed("done", map[string]any{"total_memories": 42})

	report := jc.Report()
	if report.Err != nil || report.Failed != "" {
		t.Fatalf("successful run reported failure: %+v", report)
	}
	if len(report.Stages) != 2 || report.Stages[0].Stage != "load" {
		t.Fatalf("stage history lost: %+v", report.Stages)
	}
	if report.Details["total_memories"] != 42 {
		t.Fatalf("details lost: %+v", report.Details)
	}
}

func TestContext_FailSticks(t *testing.T) {
	boom := errors.New("boom")
	jc := NewContext(context.Background(), nil)
	jc.Fail("compute", boom)
	if !errors.Is(jc.Err(), boom) {
		t.Fatalf("Err() lost the failure: %v", jc.Err())
	}
	report := jc.Report()
	if report.Failed != "compute" || !errors.Is(report.Err, boom) {
		t.Fatalf("report lost the failure: %+v", report)
	}
}
