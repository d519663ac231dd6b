package recovery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vietddude/remedy/internal/core/domain"
)

// ErrNoHandler is returned when a plan step names an action the host
// application never registered an implementation for.
var ErrNoHandler = errors.New("no handler registered for action")

// ActionFunc is one attempt of a recovery action. Blocking work must
// honor ctx; a timed-out attempt is treated as a failure.
type ActionFunc func(ctx context.Context, step domain.RecoveryStep, rec *domain.ErrorRecord) error

// Runner dispatches plan steps to registered action implementations.
// The engine owns only the orchestration shell; platform-specific
// recovery logic is injected by the host at startup.
type Runner struct {
	mu      sync.RWMutex
	actions map[domain.Action]ActionFunc
}

// NewRunner builds a runner with the hand-off actions pre-registered.
// Actions that merely route the failure to a human (prompting,
// escalation, degradation, abort) succeed without touching the failing
// dependency; everything else requires a host-registered handler.
func NewRunner() *Runner {
	r := &Runner{actions: make(map[domain.Action]ActionFunc)}
	for _, a := range []domain.Action{
		domain.ActionPromptUser,
		domain.ActionRequestPermission,
		domain.ActionEscalateToAdmin,
		domain.ActionGracefulDegradation,
		domain.ActionAbortOperation,
		domain.ActionContactSupport,
	} {
		r.actions[a] = func(context.Context, domain.RecoveryStep, *domain.ErrorRecord) error {
			return nil
		}
	}
	return r
}

// Register installs (or replaces) the implementation for an action.
func (r *Runner) Register(action domain.Action, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[action] = fn
}

// Run executes one attempt of a step. A panicking action is demoted to
// an error so a broken handler can never crash the executor.
func (r *Runner) Run(
	ctx context.Context,
	step domain.RecoveryStep,
	rec *domain.ErrorRecord,
) (err error) {
	r.mu.RLock()
	fn, ok := r.actions[step.Action]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, step.Action)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("action %s panicked: %v", step.Action, p)
		}
	}()
	return fn(ctx, step, rec)
}
