package control

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/handling/classify"
)

// HandledError wraps a failure that went through the pipeline without
// recovering, preserving the record id for the cause chain.
type HandledError struct {
	RecordID string
	Err      error
}

func (e *HandledError) Error() string {
	return fmt.Sprintf("unrecovered failure (record %s): %v", e.RecordID, e.Err)
}

func (e *HandledError) Unwrap() error { return e.Err }

// ClassifyAndHandle is the producer-facing entry point: classify the
// failure, resolve and execute its recovery plan, log the outcome and
// deliver feedback. It reports whether the failure was recovered; on
// false the caller propagates the original failure. It never panics.
func (e *Engine) ClassifyAndHandle(
	ctx context.Context,
	failure error,
	source string,
	kv map[string]string,
) bool {
	err := e.Handle(ctx, failure, source, kv)
	return err == nil
}

// Handle runs the full pipeline and returns nil when the failure was
// recovered, or the original failure wrapped with its record id.
func (e *Engine) Handle(
	ctx context.Context,
	failure error,
	source string,
	kv map[string]string,
) (out error) {
	if failure == nil {
		return nil
	}
	out = failure
	defer func() {
		// A pipeline fault must never replace the caller's failure.
		if r := recover(); r != nil {
			e.log.Error("pipeline fault", "panic", fmt.Sprint(r), "source", source)
			out = failure
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}

	rec := e.classifier.Classify(failure, source, contextEntries(kv))
	rec.Seq = e.nextSeq(source, rec.Category)
	rec.CauseIDs = causeChain(failure)

	plan := e.handlers.ResolvePlan(source, rec.Category, rec.Message)
	execCtx, done := e.execCtx(ctx)
	res := e.executor.Execute(execCtx, source, rec, plan)
	done()
	rec = rec.WithResult(res)

	e.persist(ctx, rec)
	e.deliver(rec, res)

	if res.Success {
		return nil
	}
	return &HandledError{RecordID: rec.ID, Err: failure}
}

// HandleUIError handles a failure from the widget layer.
func (e *Engine) HandleUIError(ctx context.Context, failure error, source string, kv map[string]string) bool {
	return e.ClassifyAndHandle(ctx, failure, source, withHint(kv, domain.CategoryUI))
}

// HandlePlatformError handles a failure from a platform integration.
func (e *Engine) HandlePlatformError(ctx context.Context, failure error, source string, kv map[string]string) bool {
	return e.ClassifyAndHandle(ctx, failure, source, withHint(kv, domain.CategoryPlatform))
}

// HandleDownloadError handles a failure from the download pipeline.
func (e *Engine) HandleDownloadError(ctx context.Context, failure error, source string, kv map[string]string) bool {
	return e.ClassifyAndHandle(ctx, failure, source, withHint(kv, domain.CategoryDownload))
}

// HandleRepositoryError handles a failure from the storage layer.
func (e *Engine) HandleRepositoryError(ctx context.Context, failure error, source string, kv map[string]string) bool {
	return e.ClassifyAndHandle(ctx, failure, source, withHint(kv, domain.CategoryRepository))
}

// ValidateArgs runs the component's registered precondition checks.
// A violation is logged and delivered as VALIDATION feedback without
// ever reaching the classifier; the returned error names the argument.
func (e *Engine) ValidateArgs(ctx context.Context, component string, args map[string]string) error {
	rec := e.handlers.CheckPreconditions(component, args)
	if rec == nil {
		return nil
	}
	rec.Seq = e.nextSeq(component, rec.Category)
	e.persist(ctx, rec)
	e.deliver(rec, nil)
	return &HandledError{RecordID: rec.ID, Err: errors.New(rec.Message)}
}

// Guard wraps a call site: preconditions first, then fn, with any
// failure routed through the pipeline. It returns nil when fn
// succeeded or its failure was recovered.
func (e *Engine) Guard(
	ctx context.Context,
	component string,
	args map[string]string,
	fn func(ctx context.Context) error,
) error {
	if err := e.ValidateArgs(ctx, component, args); err != nil {
		return err
	}
	err := fn(ctx)
	if err == nil {
		return nil
	}
	return e.Handle(ctx, err, component, nil)
}

func (e *Engine) persist(ctx context.Context, rec *domain.ErrorRecord) {
	if err := e.store.SaveBatch(ctx, []*domain.ErrorRecord{rec}); err != nil {
		e.log.Warn("Failed to store record", "error", err)
	}
	e.sink.Enqueue(rec)
}

func (e *Engine) deliver(rec *domain.ErrorRecord, res *domain.RecoveryResult) {
	e.feedbackMu.RLock()
	fn := e.feedbackFn
	role := e.role
	e.feedbackMu.RUnlock()
	if fn == nil {
		return
	}

	msg := e.composer.Compose(rec, res, role)
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("feedback callback panic", "panic", fmt.Sprint(r))
			}
		}()
		fn(msg)
	}()
}

// causeChain collects record ids of previously handled failures in the
// unwrap chain, oldest last.
func causeChain(failure error) []string {
	var ids []string
	for err := failure; err != nil; err = errors.Unwrap(err) {
		var handled *HandledError
		if errors.As(err, &handled) {
			ids = append(ids, handled.RecordID)
			err = handled
		}
	}
	return dedupe(ids)
}

func dedupe(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func withHint(kv map[string]string, category domain.Category) map[string]string {
	out := make(map[string]string, len(kv)+1)
	for k, v := range kv {
		out[k] = v
	}
	if _, ok := out[classify.HintCategory]; !ok {
		out[classify.HintCategory] = string(category)
	}
	return out
}

// contextEntries renders the caller's map with a stable key order.
func contextEntries(kv map[string]string) []domain.ContextEntry {
	if len(kv) == 0 {
		return nil
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]domain.ContextEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, domain.ContextEntry{Key: k, Value: kv[k]})
	}
	return entries
}
