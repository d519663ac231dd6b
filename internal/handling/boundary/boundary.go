package boundary

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/handling/recovery"
)

// Classifier turns a raw failure into an ErrorRecord.
type Classifier interface {
	Classify(failure error, source string, context []domain.ContextEntry) *domain.ErrorRecord
}

// Sink accepts finished records for durable logging.
type Sink interface {
	Enqueue(rec *domain.ErrorRecord) bool
}

// RecentProvider exposes the most recent records for snapshots.
type RecentProvider interface {
	Recent(ctx context.Context, limit int) ([]*domain.ErrorRecord, error)
}

// Snapshot is an in-memory diagnostic capture taken when a failure
// reaches the boundary. It is kept for post-mortem inspection only.
type Snapshot struct {
	CapturedAt time.Time
	Source     string
	Stack      []byte
	Record     *domain.ErrorRecord
	Recent     []*domain.ErrorRecord
}

const snapshotRecent = 20

// Handler is the process-wide last resort. Anything that escapes the
// normal call sites lands here: the failure is classified, logged, a
// minimal recovery is attempted, and a diagnostic snapshot is kept.
// Handler itself never panics.
type Handler struct {
	classifier Classifier
	sink       Sink
	runner     *recovery.Runner
	recent     RecentProvider
	log        *slog.Logger

	mu   sync.Mutex
	last *Snapshot
}

// NewHandler creates a boundary Handler. recent may be nil.
func NewHandler(
	classifier Classifier,
	sink Sink,
	runner *recovery.Runner,
	recent RecentProvider,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		classifier: classifier,
		sink:       sink,
		runner:     runner,
		recent:     recent,
		log:        log.With("component", "boundary"),
	}
}

// Handle processes a failure that escaped every other layer. It returns
// the record written for the failure, or nil when failure is nil.
func (h *Handler) Handle(ctx context.Context, failure error, source string) (rec *domain.ErrorRecord) {
	defer func() {
		if r := recover(); r != nil {
			// The boundary must hold even against its own bugs.
			h.log.Error("boundary handler fault", "panic", fmt.Sprint(r))
			rec = nil
		}
	}()
	if failure == nil {
		return nil
	}
	if source == "" {
		source = "boundary"
	}

	rec = h.classify(failure, source)
	rec = rec.WithResult(h.mitigate(ctx, rec))
	h.capture(ctx, source, rec)

	h.log.Error("unhandled failure reached boundary",
		"source", source,
		"category", rec.Category,
		"severity", rec.Severity,
		"error", failure,
	)
	if h.sink != nil {
		h.sink.Enqueue(rec)
	}
	return rec
}

// Guard runs fn and converts a panic into a boundary-handled error.
// The returned error (panic or fn's own) is never swallowed.
func (h *Handler) Guard(ctx context.Context, source string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", source, r)
			h.Handle(ctx, err, source)
		}
	}()
	if err = fn(); err != nil {
		h.Handle(ctx, err, source)
	}
	return err
}

// Go runs fn on a new goroutine under Guard. Panics terminate the
// goroutine, not the process.
func (h *Handler) Go(ctx context.Context, source string, fn func() error) {
	go func() {
		_ = h.Guard(ctx, source, fn)
	}()
}

// LastSnapshot returns the most recent diagnostic snapshot, or nil.
func (h *Handler) LastSnapshot() *Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func (h *Handler) classify(failure error, source string) *domain.ErrorRecord {
	if h.classifier != nil {
		if rec := h.classifier.Classify(failure, source, nil); rec != nil {
			return rec
		}
	}
	return domain.NewErrorRecord(domain.CategoryUnknown, domain.SeverityMedium, 0, source, failure.Error(), nil)
}

// mitigate runs the boundary's minimal plan. It never goes further than
// graceful degradation or aborting the failed operation.
func (h *Handler) mitigate(ctx context.Context, rec *domain.ErrorRecord) *domain.RecoveryResult {
	start := time.Now()
	res := &domain.RecoveryResult{}

	if h.runner == nil {
		res.Success = true
		res.Attempts = 1
		res.ActionTaken = domain.ActionAbortOperation
		res.Elapsed = time.Since(start)
		return res
	}

	for _, action := range []domain.Action{domain.ActionGracefulDegradation, domain.ActionAbortOperation} {
		res.Attempts++
		res.ActionTaken = action
		step := domain.RecoveryStep{Action: action, Timeout: 2 * time.Second}
		if err := h.runner.Run(ctx, step, rec); err == nil {
			res.Success = true
			res.Failure = ""
			break
		} else {
			res.Failure = err.Error()
		}
	}
	res.Elapsed = time.Since(start)
	return res
}

func (h *Handler) capture(ctx context.Context, source string, rec *domain.ErrorRecord) {
	snap := &Snapshot{
		CapturedAt: time.Now(),
		Source:     source,
		Stack:      debug.Stack(),
		Record:     rec,
	}
	if h.recent != nil {
		recent, err := h.recent.Recent(ctx, snapshotRecent)
		if err == nil {
			snap.Recent = recent
		}
	}
	h.mu.Lock()
	h.last = snap
	h.mu.Unlock()
}
