package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/remedy/internal/infra/storage"
)

// Pruner deletes error records past the retention window.
type Pruner struct {
	retention time.Duration
	records   storage.ErrorRecordRepository
}

// NewPruner creates a new Pruner worker.
func NewPruner(retention time.Duration, records storage.ErrorRecordRepository) *Pruner {
	return &Pruner{
		retention: retention,
		records:   records,
	}
}

// Start runs the pruner loop until ctx is cancelled.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check interval: 10% of the retention window, clamped to [1m, 1h].
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := time.Now().Add(-p.retention)

	n, err := p.records.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("[Pruner] failed to prune error records", "error", err)
		return
	}
	if n > 0 {
		slog.Debug("[Pruner] pruned error records", "count", n, "cutoff", cutoff)
	}
}
