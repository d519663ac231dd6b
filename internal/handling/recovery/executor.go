// Package recovery resolves and executes recovery plans: sequential
// steps with per-step retries and backoff, bounded concurrent groups
// for independent steps, and circuit breaker gating of retry actions.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/handling/breaker"
	"github.com/vietddude/remedy/internal/handling/metrics"
)

// Config holds executor tuning.
type Config struct {
	// MaxParallel bounds a concurrent group of independent steps.
	MaxParallel int `yaml:"max_parallel"`
	// StepTimeout applies to steps that do not set their own.
	StepTimeout time.Duration `yaml:"step_timeout"`
}

// DefaultConfig returns the stock executor configuration.
func DefaultConfig() Config {
	return Config{MaxParallel: 4, StepTimeout: 10 * time.Second}
}

// Executor runs recovery plans against the breaker registry.
type Executor struct {
	cfg      Config
	breakers *breaker.Registry
	runner   *Runner
	log      *slog.Logger
}

// NewExecutor builds an executor.
func NewExecutor(cfg Config, breakers *breaker.Registry, runner *Runner, log *slog.Logger) *Executor {
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultConfig().MaxParallel
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = DefaultConfig().StepTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Executor{cfg: cfg, breakers: breakers, runner: runner, log: log}
}

// stepOutcome is the result of running (or skipping) one step.
type stepOutcome struct {
	action  domain.Action
	skipped bool
	err     error
}

// Execute runs the plan for the record. Execution stops at the first
// step reporting success. Attempts counts executed steps; breaker-
// skipped steps do not count.
func (e *Executor) Execute(
	ctx context.Context,
	component string,
	rec *domain.ErrorRecord,
	plan *domain.RecoveryPlan,
) *domain.RecoveryResult {
	start := time.Now()
	res := &domain.RecoveryResult{}
	var failures []error
	gatedRecorded := false

	steps := plan.Steps
	for i := 0; i < len(steps); {
		group := independentGroup(steps, i)

		var outcomes []stepOutcome
		if len(group) > 1 {
			outcomes = e.runGroup(ctx, component, rec, group)
		} else {
			outcomes = []stepOutcome{e.runStep(ctx, component, rec, steps[i])}
		}
		i += len(group)

		for _, o := range outcomes {
			if o.skipped {
				e.log.Debug("step skipped by open breaker",
					"component", component, "category", rec.Category, "action", o.action)
				continue
			}
			res.Attempts++
			if o.err == nil {
				res.Success = true
				res.ActionTaken = o.action
				res.Elapsed = time.Since(start)
				metrics.RecoveriesTotal.WithLabelValues("success", string(o.action)).Inc()
				metrics.RecoveryAttempts.Observe(float64(res.Attempts))
				return res
			}
			failures = append(failures, fmt.Errorf("%s: %w", o.action, o.err))
			if o.action.Gated() {
				gatedRecorded = true
			}
		}

		if ctx.Err() != nil {
			failures = append(failures, ctx.Err())
			break
		}
	}

	// Only executed steps charge the breaker; a plan that ran nothing
	// (empty, or fully skipped by an open key) leaves it untouched.
	if !gatedRecorded && res.Attempts > 0 {
		e.breakers.RecordFailure(component, rec.Category)
	}
	res.Elapsed = time.Since(start)
	switch {
	case len(failures) > 0:
		res.Failure = errors.Join(failures...).Error()
	case len(steps) > 0:
		res.Failure = "all steps skipped by open breaker"
	default:
		res.Failure = "empty recovery plan"
	}
	metrics.RecoveriesTotal.WithLabelValues("failure", "").Inc()
	metrics.RecoveryAttempts.Observe(float64(res.Attempts))
	return res
}

// independentGroup returns the run of consecutive independent steps
// starting at i, or just steps[i:i+1] when the step is sequential.
func independentGroup(steps []domain.RecoveryStep, i int) []domain.RecoveryStep {
	if !steps[i].Independent {
		return steps[i : i+1]
	}
	j := i
	for j < len(steps) && steps[j].Independent {
		j++
	}
	return steps[i:j]
}

// runGroup executes independent steps concurrently, bounded by
// MaxParallel. The first success cancels its siblings; otherwise all
// failures are collected.
func (e *Executor) runGroup(
	ctx context.Context,
	component string,
	rec *domain.ErrorRecord,
	group []domain.RecoveryStep,
) []stepOutcome {
	groupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, e.cfg.MaxParallel)
	outcomes := make([]stepOutcome, len(group))
	var wg sync.WaitGroup

	for idx, step := range group {
		wg.Add(1)
		go func(idx int, step domain.RecoveryStep) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-groupCtx.Done():
				outcomes[idx] = stepOutcome{action: step.Action, err: groupCtx.Err()}
				return
			}
			outcomes[idx] = e.runStep(groupCtx, component, rec, step)
			if outcomes[idx].err == nil && !outcomes[idx].skipped {
				cancel()
			}
		}(idx, step)
	}
	wg.Wait()
	return outcomes
}

// runStep executes a single step including its internal retry loop.
// Gated actions consult the breaker first; an OPEN key skips the step
// entirely so the next fallback or escalation step runs immediately.
func (e *Executor) runStep(
	ctx context.Context,
	component string,
	rec *domain.ErrorRecord,
	step domain.RecoveryStep,
) stepOutcome {
	if step.Action.Gated() && !e.breakers.Allow(component, rec.Category) {
		return stepOutcome{action: step.Action, skipped: true}
	}

	tries := 1
	switch step.Action {
	case domain.ActionRetry, domain.ActionRetryWithDelay, domain.ActionRetryWithBackoff:
		if step.MaxRetries > 0 {
			tries = step.MaxRetries
		}
	}

	backoff := Backoff{Base: step.BackoffBase, Cap: step.BackoffCap}
	if backoff.Base <= 0 {
		backoff = DefaultBackoff()
	}

	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		if attempt > 1 {
			var delay time.Duration
			switch step.Action {
			case domain.ActionRetryWithBackoff:
				delay = backoff.Delay(attempt - 1)
			case domain.ActionRetryWithDelay:
				delay = backoff.Base
			}
			if delay > 0 {
				select {
				case <-ctx.Done():
					return stepOutcome{action: step.Action, err: ctx.Err()}
				case <-time.After(delay):
				}
			}
		}

		lastErr = e.runAttempt(ctx, step, rec)
		if step.Action.Gated() {
			if lastErr == nil {
				e.breakers.RecordSuccess(component, rec.Category)
			} else {
				e.breakers.RecordFailure(component, rec.Category)
			}
		}
		if lastErr == nil {
			return stepOutcome{action: step.Action}
		}
		if ctx.Err() != nil {
			break
		}
		// A key opened mid-step stops further tries.
		if step.Action.Gated() && !e.breakers.Allow(component, rec.Category) {
			break
		}
	}
	return stepOutcome{action: step.Action, err: lastErr}
}

// runAttempt runs one attempt under the step's timeout.
func (e *Executor) runAttempt(
	ctx context.Context,
	step domain.RecoveryStep,
	rec *domain.ErrorRecord,
) error {
	timeout := step.Timeout
	if timeout <= 0 {
		timeout = e.cfg.StepTimeout
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.runner.Run(attemptCtx, step, rec)
}
