package health

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/handling/breaker"
	"github.com/vietddude/remedy/internal/infra/storage"
)

// SinkStats exposes sink backpressure counters.
type SinkStats interface {
	QueueDepth() int
	Dropped() uint64
}

// recoveryWindow bounds how many recent records feed the success rate.
const recoveryWindow = 200

// Monitor aggregates health status from the engine's components.
type Monitor struct {
	records  storage.ErrorRecordRepository
	breakers *breaker.Registry
	sink     SinkStats

	lastCheck  time.Time
	lastReport *Report
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor. Any dependency may be nil;
// the corresponding report section is then left empty.
func NewMonitor(records storage.ErrorRecordRepository, breakers *breaker.Registry, sink SinkStats) *Monitor {
	return &Monitor{
		records:  records,
		breakers: breakers,
		sink:     sink,
	}
}

// CheckHealth builds a health report. Reports are cached for a few
// seconds so scrapers cannot hammer the record store.
func (m *Monitor) CheckHealth(ctx context.Context) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && m.lastReport != nil {
		return m.lastReport
	}

	report := &Report{
		Status:           StatusHealthy,
		ErrorsByCategory: make(map[domain.Category]int),
	}

	if m.records != nil {
		if counts, err := m.records.CountByCategory(ctx); err == nil {
			report.ErrorsByCategory = counts
		}
		if recent, err := m.records.Recent(ctx, recoveryWindow); err == nil {
			recovered := 0
			for _, rec := range recent {
				if rec.Result == nil {
					continue
				}
				report.RecoverySamples++
				if rec.Result.Success {
					recovered++
				}
			}
			if report.RecoverySamples > 0 {
				report.RecoveryRate = float64(recovered) / float64(report.RecoverySamples)
			}
		}
	}

	if m.breakers != nil {
		report.Breakers = m.breakers.Snapshot()
		for _, b := range report.Breakers {
			if b.State == domain.BreakerOpen {
				report.OpenBreakers++
			}
		}
	}

	if m.sink != nil {
		report.SinkQueueDepth = m.sink.QueueDepth()
		report.SinkDropped = m.sink.Dropped()
	}

	// Evaluate status (worst signal wins).
	switch {
	case report.SinkDropped > 100,
		report.RecoverySamples >= 20 && report.RecoveryRate < 0.2:
		report.Status = StatusCritical
	case report.OpenBreakers > 0,
		report.SinkDropped > 0,
		report.RecoverySamples >= 20 && report.RecoveryRate < 0.8:
		report.Status = StatusDegraded
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
