package domain

import (
	"time"

	"github.com/google/uuid"
)

// ContextEntry is one key/value pair of classification context.
// Entries keep their insertion order, unlike a plain map.
type ContextEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ErrorRecord is the classified representation of a failure. It is
// immutable after creation; the only later mutation allowed is attaching
// the final RecoveryResult before the record is handed to the sink.
type ErrorRecord struct {
	ID         string          `json:"id"`
	Category   Category        `json:"category"`
	Severity   Severity        `json:"severity"`
	Confidence float64         `json:"confidence"`
	Source     string          `json:"source"`
	Message    string          `json:"message"`
	Timestamp  time.Time       `json:"timestamp"`
	Context    []ContextEntry  `json:"context,omitempty"`
	CauseIDs   []string        `json:"cause_ids,omitempty"`
	Seq        uint64          `json:"seq"`
	Result     *RecoveryResult `json:"result,omitempty"`
}

// NewErrorRecord builds a record with a fresh id and timestamp.
func NewErrorRecord(
	category Category,
	severity Severity,
	confidence float64,
	source, message string,
	context []ContextEntry,
) *ErrorRecord {
	return &ErrorRecord{
		ID:         uuid.New().String(),
		Category:   category,
		Severity:   severity,
		Confidence: confidence,
		Source:     source,
		Message:    message,
		Timestamp:  time.Now(),
		Context:    context,
	}
}

// ContextValue returns the value for key, scanning in insertion order.
func (r *ErrorRecord) ContextValue(key string) (string, bool) {
	for _, e := range r.Context {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// WithResult returns a shallow copy carrying the recovery outcome.
// The original record is left untouched.
func (r *ErrorRecord) WithResult(res *RecoveryResult) *ErrorRecord {
	cp := *r
	cp.Result = res
	return &cp
}
