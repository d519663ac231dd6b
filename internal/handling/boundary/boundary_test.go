package boundary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/handling/classify"
	"github.com/vietddude/remedy/internal/handling/recovery"
)

// ============================================================================
// Mocks
// ============================================================================

type mockSink struct {
	mu   sync.Mutex
	recs []*domain.ErrorRecord
}

func (m *mockSink) Enqueue(rec *domain.ErrorRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, rec)
	return true
}

func (m *mockSink) records() []*domain.ErrorRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.ErrorRecord, len(m.recs))
	copy(out, m.recs)
	return out
}

type mockRecent struct {
	recs []*domain.ErrorRecord
}

func (m *mockRecent) Recent(_ context.Context, limit int) ([]*domain.ErrorRecord, error) {
	if limit > len(m.recs) {
		limit = len(m.recs)
	}
	return m.recs[:limit], nil
}

type panickyClassifier struct{}

func (panickyClassifier) Classify(error, string, []domain.ContextEntry) *domain.ErrorRecord {
	panic("classifier bug")
}

func newHandler(t *testing.T, sink Sink, recent RecentProvider) *Handler {
	t.Helper()
	cls := classify.New(classify.Config{}, nil)
	return NewHandler(cls, sink, recovery.NewRunner(), recent, nil)
}

// ============================================================================
// Tests
// ============================================================================

func TestHandle_ClassifiesAndLogs(t *testing.T) {
	sink := &mockSink{}
	h := newHandler(t, sink, nil)

	rec := h.Handle(context.Background(), errors.New("connection refused by host"), "updater")
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Category != domain.CategoryNetwork {
		t.Errorf("category = %s, want %s", rec.Category, domain.CategoryNetwork)
	}
	if rec.Result == nil || !rec.Result.Success {
		t.Fatalf("expected successful minimal recovery, got %+v", rec.Result)
	}
	if rec.Result.ActionTaken != domain.ActionGracefulDegradation {
		t.Errorf("action = %s, want %s", rec.Result.ActionTaken, domain.ActionGracefulDegradation)
	}
	if got := sink.records(); len(got) != 1 {
		t.Fatalf("sink got %d records, want 1", len(got))
	}
}

func TestHandle_NilFailure(t *testing.T) {
	sink := &mockSink{}
	h := newHandler(t, sink, nil)

	if rec := h.Handle(context.Background(), nil, "updater"); rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
	if len(sink.records()) != 0 {
		t.Error("nil failure must not be logged")
	}
}

func TestHandle_NeverPanics(t *testing.T) {
	h := NewHandler(panickyClassifier{}, &mockSink{}, recovery.NewRunner(), nil, nil)

	// A classifier bug must not escape the boundary.
	rec := h.Handle(context.Background(), errors.New("boom"), "updater")
	if rec != nil {
		t.Errorf("faulted handler should return nil, got %+v", rec)
	}
}

func TestHandle_NoClassifierFallsBackToUnknown(t *testing.T) {
	h := NewHandler(nil, &mockSink{}, recovery.NewRunner(), nil, nil)

	rec := h.Handle(context.Background(), errors.New("???"), "")
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Category != domain.CategoryUnknown {
		t.Errorf("category = %s, want %s", rec.Category, domain.CategoryUnknown)
	}
	if rec.Source != "boundary" {
		t.Errorf("source = %q, want %q", rec.Source, "boundary")
	}
}

func TestGuard_ConvertsPanicToError(t *testing.T) {
	sink := &mockSink{}
	h := newHandler(t, sink, nil)

	err := h.Guard(context.Background(), "widget_palette", func() error {
		panic("index out of range")
	})
	if err == nil {
		t.Fatal("expected an error from the panicking func")
	}
	if !strings.Contains(err.Error(), "index out of range") {
		t.Errorf("error %q should carry the panic value", err)
	}
	if len(sink.records()) != 1 {
		t.Fatal("panic must be logged through the sink")
	}
}

func TestGuard_PropagatesOriginalError(t *testing.T) {
	sink := &mockSink{}
	h := newHandler(t, sink, nil)

	sentinel := errors.New("disk full")
	err := h.Guard(context.Background(), "exporter", func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("Guard must return the original error, got %v", err)
	}
}

func TestSnapshot_Captured(t *testing.T) {
	prior := domain.NewErrorRecord(domain.CategoryNetwork, domain.SeverityLow, 1, "updater", "timeout", nil)
	recent := &mockRecent{recs: []*domain.ErrorRecord{prior}}
	h := newHandler(t, &mockSink{}, recent)

	if h.LastSnapshot() != nil {
		t.Fatal("fresh handler should have no snapshot")
	}

	h.Handle(context.Background(), errors.New("segfault adjacent"), "renderer")

	snap := h.LastSnapshot()
	if snap == nil {
		t.Fatal("expected a snapshot after Handle")
	}
	if len(snap.Stack) == 0 {
		t.Error("snapshot should include a stack trace")
	}
	if snap.Record == nil || snap.Record.Message != "segfault adjacent" {
		t.Errorf("snapshot record = %+v", snap.Record)
	}
	if len(snap.Recent) != 1 || snap.Recent[0].ID != prior.ID {
		t.Errorf("snapshot should carry recent records, got %+v", snap.Recent)
	}
}
