// Package control wires the classification and recovery pipeline into
// a single engine with a managed lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vietddude/remedy/internal/core/config"
	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/core/worker"
	"github.com/vietddude/remedy/internal/handling/boundary"
	"github.com/vietddude/remedy/internal/handling/breaker"
	"github.com/vietddude/remedy/internal/handling/classify"
	"github.com/vietddude/remedy/internal/handling/feedback"
	"github.com/vietddude/remedy/internal/handling/health"
	"github.com/vietddude/remedy/internal/handling/recovery"
	"github.com/vietddude/remedy/internal/handling/registry"
	"github.com/vietddude/remedy/internal/infra/sink"
	"github.com/vietddude/remedy/internal/infra/storage/memory"
	"github.com/vietddude/remedy/internal/infra/storage/postgres"
)

// FeedbackFunc receives the user-facing message for a handled failure.
type FeedbackFunc func(msg domain.FeedbackMessage)

type seqKey struct {
	component string
	category  domain.Category
}

// Engine is the in-process error handling pipeline: classification,
// plan resolution, breaker-gated recovery, durable logging and
// feedback composition behind one entry point.
type Engine struct {
	cfg        *config.AppConfig
	log        *slog.Logger
	classifier *classify.Classifier
	handlers   *registry.Registry
	breakers   *breaker.Registry
	runner     *recovery.Runner
	executor   *recovery.Executor
	composer   *feedback.Composer
	sink       *sink.AsyncSink
	store      *memory.RecordStore
	db         *postgres.DB
	boundary   *boundary.Handler
	healthMon  *health.Monitor
	healthSrv  *health.Server
	pruner     *worker.Pruner

	feedbackMu sync.RWMutex
	feedbackFn FeedbackFunc
	role       domain.Role

	seqMu sync.Mutex
	seqs  map[seqKey]uint64

	lifecycleMu sync.Mutex
	runCtx      context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewEngine creates an Engine with all dependencies initialized.
func NewEngine(cfg *config.AppConfig, log *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		cfg:      cfg,
		log:      log,
		store:    memory.NewRecordStore(),
		seqs:     make(map[seqKey]uint64),
		role:     configuredRole(cfg.Feedback.Role),
		breakers: breaker.NewRegistry(cfg.Breaker),
		handlers: registry.NewRegistry(),
		runner:   recovery.NewRunner(),
		composer: feedback.NewComposer(log),
	}
	e.classifier = classify.New(cfg.Classifier, log)
	e.executor = recovery.NewExecutor(cfg.Recovery, e.breakers, e.runner, log)

	// 1. Durable journal backend for the sink.
	journal, err := newJournal(cfg.Sink, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init journal: %w", err)
	}

	// 2. Optional archive database. Migrations run on connect.
	var archiver sink.Archiver
	if cfg.Archive.Enabled && cfg.Archive.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Archive.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init archive db: %w", err)
		}
		e.db = db
		archiver = postgres.NewRecordRepo(db)
		log.Info("Using PostgreSQL archive")
	}

	e.sink = sink.New(cfg.Sink, journal, archiver, log)

	// 3. Last-resort boundary and supporting workers.
	e.boundary = boundary.NewHandler(e.classifier, e.sink, e.runner, e.store, log)
	e.pruner = worker.NewPruner(cfg.Records.Retention, e.store)
	e.healthMon = health.NewMonitor(e.store, e.breakers, e.sink)
	if cfg.Server.Enabled {
		e.healthSrv = health.NewServer(e.healthMon, cfg.Server.Port)
	}

	return e, nil
}

func configuredRole(raw string) domain.Role {
	role := domain.Role(raw)
	if role.Valid() {
		return role
	}
	return domain.RoleEndUser
}

func newJournal(cfg sink.Config, log *slog.Logger) (sink.Journal, error) {
	switch cfg.Backend {
	case "redis":
		return sink.NewRedisJournal(cfg.Redis)
	default:
		return sink.NewFileJournal(cfg.Path, cfg.RotateSize, cfg.Compress, log)
	}
}

// Start starts the engine's background workers.
func (e *Engine) Start(ctx context.Context) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	if e.cancel != nil {
		return fmt.Errorf("engine already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.runCtx = runCtx
	e.cancel = cancel

	e.sink.Start()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.pruner.Start(runCtx)
	}()

	if e.healthSrv != nil {
		go func() {
			if err := e.healthSrv.Start(); err != nil {
				e.log.Error("Health server failed", "error", err)
			}
		}()
	}

	e.log.Info("Engine started")
	return nil
}

// Stop stops the engine, propagating cancellation to in-flight
// recovery steps and forcing a final sink flush.
func (e *Engine) Stop(ctx context.Context) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()
	e.log.Info("Stopping engine...")

	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
		e.runCtx = nil
	}
	e.wg.Wait()

	if e.healthSrv != nil {
		if err := e.healthSrv.Stop(ctx); err != nil {
			e.log.Warn("Failed to stop health server", "error", err)
		}
	}

	err := e.sink.Close(ctx)

	if e.db != nil {
		if cerr := e.db.Close(); cerr != nil {
			e.log.Warn("Failed to close archive db", "error", cerr)
		}
	}
	return err
}

// SetFeedbackFunc installs the UI callback that receives composed
// feedback messages. Passing nil disables feedback delivery.
func (e *Engine) SetFeedbackFunc(fn FeedbackFunc) {
	e.feedbackMu.Lock()
	defer e.feedbackMu.Unlock()
	e.feedbackFn = fn
}

// SetRole selects the audience tier for composed feedback.
func (e *Engine) SetRole(role domain.Role) {
	e.feedbackMu.Lock()
	defer e.feedbackMu.Unlock()
	if role.Valid() {
		e.role = role
	}
}

// RegisterComponent installs a component's overrides, default plan,
// fallback chain and precondition checks.
func (e *Engine) RegisterComponent(reg registry.Registration) error {
	return e.handlers.Register(reg)
}

// SetGlobalPlan replaces the engine-wide default plan for a category.
func (e *Engine) SetGlobalPlan(category domain.Category, plan *domain.RecoveryPlan) {
	e.handlers.SetGlobalPlan(category, plan)
}

// RegisterAction installs the implementation for a recovery action.
func (e *Engine) RegisterAction(action domain.Action, fn recovery.ActionFunc) {
	e.runner.Register(action, fn)
}

// Boundary returns the process-wide last-resort handler.
func (e *Engine) Boundary() *boundary.Handler {
	return e.boundary
}

// Health returns the engine health monitor.
func (e *Engine) Health() *health.Monitor {
	return e.healthMon
}

// Recent returns the most recent in-memory records, newest first.
func (e *Engine) Recent(ctx context.Context, limit int) ([]*domain.ErrorRecord, error) {
	return e.store.Recent(ctx, limit)
}

// execCtx ties a recovery execution to both the caller's context and
// the engine run context, so Stop interrupts in-flight steps. The
// returned cancel must be called when the execution finishes.
func (e *Engine) execCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	e.lifecycleMu.Lock()
	run := e.runCtx
	e.lifecycleMu.Unlock()
	if run == nil {
		return ctx, func() {}
	}
	merged, cancel := context.WithCancel(ctx)
	unlink := context.AfterFunc(run, cancel)
	return merged, func() {
		unlink()
		cancel()
	}
}

// nextSeq hands out the per-(component, category) sequence number that
// fixes the logging order for records of the same key.
func (e *Engine) nextSeq(component string, category domain.Category) uint64 {
	e.seqMu.Lock()
	defer e.seqMu.Unlock()
	k := seqKey{component, category}
	e.seqs[k]++
	return e.seqs[k]
}
