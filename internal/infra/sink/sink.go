// Package sink persists classified records and their recovery outcomes
// asynchronously. Producers enqueue into a bounded buffer and never
// wait on journal I/O; a dedicated worker drains, batches and writes.
package sink

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/handling/metrics"
)

// Config holds sink tuning.
type Config struct {
	Backend       string        `yaml:"backend"` // "file" or "redis"
	Path          string        `yaml:"path"`
	BufferSize    int           `yaml:"buffer_size"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	RotateSize    int64         `yaml:"rotate_size"`
	Compress      bool          `yaml:"compress"`
	RedactFields  []string      `yaml:"redact_fields"`
	Redis         RedisConfig   `yaml:"redis"`
}

// DefaultConfig returns the stock sink configuration.
func DefaultConfig() Config {
	return Config{
		Backend:       "file",
		Path:          "remedy.log",
		BufferSize:    1024,
		BatchSize:     64,
		FlushInterval: time.Second,
		RotateSize:    32 << 20,
		Compress:      true,
		RedactFields:  []string{"password", "token", "credentials", "api_key", "secret"},
	}
}

// Journal is the durable backend the worker writes batches to.
type Journal interface {
	// Append writes the lines as one batch. Lines are newline-free
	// JSON documents; the journal owns the line framing.
	Append(lines [][]byte) error
	Close() error
}

// Archiver receives drained records for secondary storage. Optional.
type Archiver interface {
	ArchiveBatch(ctx context.Context, records []*domain.ErrorRecord) error
}

// AsyncSink is the bounded, backpressure-aware sink. When the buffer
// is full the oldest non-CRITICAL record is dropped and counted; a
// CRITICAL record instead triggers a synchronous drain of the queue
// head and is then buffered behind what remains, so it is never
// dropped and never written ahead of older records.
type AsyncSink struct {
	cfg     Config
	journal Journal
	archive Archiver
	log     *slog.Logger

	queue   chan *domain.ErrorRecord
	stop    chan struct{}
	wg      sync.WaitGroup
	closed  atomic.Bool
	dropped atomic.Uint64

	// writeMu serializes journal writes between the worker and the
	// synchronous CRITICAL path.
	writeMu sync.Mutex
}

// New builds a sink over the given journal. Start must be called
// before records are drained.
func New(cfg Config, journal Journal, archive Archiver, log *slog.Logger) *AsyncSink {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &AsyncSink{
		cfg:     cfg,
		journal: journal,
		archive: archive,
		log:     log,
		queue:   make(chan *domain.ErrorRecord, cfg.BufferSize),
		stop:    make(chan struct{}),
	}
}

// Start launches the background worker.
func (s *AsyncSink) Start() {
	s.wg.Add(1)
	go s.worker()
}

// Enqueue hands a record to the sink. It returns in bounded time
// regardless of sink load; the boolean reports whether the record was
// accepted (false only for non-CRITICAL drops on a saturated buffer).
// Sensitive fields are redacted before the record is buffered.
func (s *AsyncSink) Enqueue(rec *domain.ErrorRecord) bool {
	if rec == nil {
		return false
	}
	rec = Redact(rec, s.cfg.RedactFields)

	if s.closed.Load() {
		// Shutdown race: flush whatever is still queued ahead of
		// this record, then write through so it lands in order.
		s.drainSync(nil)
		s.writeBatch([]*domain.ErrorRecord{rec})
		return true
	}

	select {
	case s.queue <- rec:
		metrics.SinkQueueDepth.Set(float64(len(s.queue)))
		return true
	default:
	}

	// Buffer full. A CRITICAL record forces a synchronous drain of the
	// queue head, then joins the back of the queue: room opens without
	// the record overtaking older ones in the journal.
	if rec.Severity == domain.SeverityCritical {
		s.drainSync(nil)
		select {
		case s.queue <- rec:
		default:
			// Producers refilled the buffer during the drain.
			// A CRITICAL record is still never dropped.
			s.writeBatch([]*domain.ErrorRecord{rec})
		}
		return true
	}

	// Drop the oldest non-CRITICAL record to make room. An evicted
	// CRITICAL record is never dropped: it is flushed together with
	// the records queued behind it, keeping journal order intact.
	select {
	case old := <-s.queue:
		if old.Severity == domain.SeverityCritical {
			s.drainSync(old)
		} else {
			s.dropped.Add(1)
			metrics.SinkDropped.Inc()
		}
	default:
	}

	select {
	case s.queue <- rec:
		return true
	default:
		s.dropped.Add(1)
		metrics.SinkDropped.Inc()
		return false
	}
}

// Dropped returns the drop counter.
func (s *AsyncSink) Dropped() uint64 {
	return s.dropped.Load()
}

// QueueDepth returns the current buffer depth.
func (s *AsyncSink) QueueDepth() int {
	return len(s.queue)
}

// Close stops the worker, drains the buffer, forces a final flush and
// closes the journal. Safe to call once.
func (s *AsyncSink) Close(ctx context.Context) error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.stop)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.journal.Close()
}

// drainSync flushes up to one batch from the head of the queue on the
// caller's goroutine, oldest first. head, when non-nil, is a record
// already popped from the front and leads the batch.
func (s *AsyncSink) drainSync(head *domain.ErrorRecord) {
	batch := make([]*domain.ErrorRecord, 0, s.cfg.BatchSize)
	if head != nil {
		batch = append(batch, head)
	}
	for len(batch) < s.cfg.BatchSize {
		select {
		case rec := <-s.queue:
			batch = append(batch, rec)
		default:
			s.writeBatch(batch)
			return
		}
	}
	s.writeBatch(batch)
}

func (s *AsyncSink) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]*domain.ErrorRecord, 0, s.cfg.BatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.writeBatch(batch)
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-s.queue:
			batch = append(batch, rec)
			if len(batch) >= s.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
			metrics.SinkQueueDepth.Set(float64(len(s.queue)))
		case <-s.stop:
			// Final drain: everything buffered is flushed.
			for {
				select {
				case rec := <-s.queue:
					batch = append(batch, rec)
					if len(batch) >= s.cfg.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (s *AsyncSink) writeBatch(records []*domain.ErrorRecord) {
	lines := make([][]byte, 0, len(records))
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			s.log.Error("failed to marshal record", "id", rec.ID, "error", err)
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return
	}

	s.writeMu.Lock()
	err := s.journal.Append(lines)
	s.writeMu.Unlock()
	if err != nil {
		s.log.Error("journal append failed", "records", len(lines), "error", err)
	} else {
		metrics.SinkBatchesWritten.Inc()
	}

	if s.archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.archive.ArchiveBatch(ctx, records); err != nil {
			s.log.Warn("archive batch failed", "records", len(records), "error", err)
		}
		cancel()
	}
}
