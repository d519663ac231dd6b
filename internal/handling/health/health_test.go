package health

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/handling/breaker"
	"github.com/vietddude/remedy/internal/infra/storage/memory"
)

// =============================================================================
// Mocks
// =============================================================================

type stubSink struct {
	depth   int
	dropped uint64
}

func (s *stubSink) QueueDepth() int { return s.depth }
func (s *stubSink) Dropped() uint64 { return s.dropped }

func record(category domain.Category, success bool) *domain.ErrorRecord {
	rec := domain.NewErrorRecord(category, domain.SeverityMedium, 0.9, "updater", "boom", nil)
	return rec.WithResult(&domain.RecoveryResult{
		Success:     success,
		ActionTaken: domain.ActionRetry,
		Attempts:    1,
	})
}

// =============================================================================
// Tests
// =============================================================================

func TestCheckHealth_EmptyEngineIsHealthy(t *testing.T) {
	m := NewMonitor(memory.NewRecordStore(), breaker.NewRegistry(breaker.DefaultConfig()), &stubSink{})

	report := m.CheckHealth(context.Background())
	if report.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", report.Status, StatusHealthy)
	}
	if report.RecoverySamples != 0 {
		t.Errorf("samples = %d, want 0", report.RecoverySamples)
	}
}

func TestCheckHealth_CountsAndRate(t *testing.T) {
	store := memory.NewRecordStore()
	recs := []*domain.ErrorRecord{
		record(domain.CategoryNetwork, true),
		record(domain.CategoryNetwork, true),
		record(domain.CategoryNetwork, false),
		record(domain.CategoryDownload, true),
	}
	if err := store.SaveBatch(context.Background(), recs); err != nil {
		t.Fatal(err)
	}

	m := NewMonitor(store, nil, nil)
	report := m.CheckHealth(context.Background())

	if report.ErrorsByCategory[domain.CategoryNetwork] != 3 {
		t.Errorf("network count = %d, want 3", report.ErrorsByCategory[domain.CategoryNetwork])
	}
	if report.RecoverySamples != 4 {
		t.Errorf("samples = %d, want 4", report.RecoverySamples)
	}
	if report.RecoveryRate != 0.75 {
		t.Errorf("recovery rate = %v, want 0.75", report.RecoveryRate)
	}
}

func TestCheckHealth_OpenBreakerDegrades(t *testing.T) {
	breakers := breaker.NewRegistry(breaker.Config{Threshold: 1, Cooldown: time.Minute})
	breakers.RecordFailure("platform_api", domain.CategoryNetwork)

	m := NewMonitor(memory.NewRecordStore(), breakers, &stubSink{})
	report := m.CheckHealth(context.Background())

	if report.OpenBreakers != 1 {
		t.Fatalf("open breakers = %d, want 1", report.OpenBreakers)
	}
	if report.Status != StatusDegraded {
		t.Errorf("status = %s, want %s", report.Status, StatusDegraded)
	}
}

func TestCheckHealth_SinkDropsEscalate(t *testing.T) {
	m := NewMonitor(nil, nil, &stubSink{depth: 12, dropped: 500})

	report := m.CheckHealth(context.Background())
	if report.Status != StatusCritical {
		t.Errorf("status = %s, want %s", report.Status, StatusCritical)
	}
	if report.SinkQueueDepth != 12 {
		t.Errorf("queue depth = %d, want 12", report.SinkQueueDepth)
	}
}

func TestCheckHealth_ReportIsCached(t *testing.T) {
	store := memory.NewRecordStore()
	m := NewMonitor(store, nil, nil)

	first := m.CheckHealth(context.Background())

	// Mutating the store within the cache window must not change the report.
	if err := store.SaveBatch(context.Background(), []*domain.ErrorRecord{record(domain.CategoryUI, false)}); err != nil {
		t.Fatal(err)
	}
	second := m.CheckHealth(context.Background())
	if first != second {
		t.Error("expected the cached report within the refresh window")
	}
}
