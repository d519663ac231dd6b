package sink

import (
	"strings"

	"github.com/vietddude/remedy/internal/core/domain"
)

const redactedValue = "[REDACTED]"

// Redact returns a copy of the record with configured sensitive
// context fields masked. The original record is never mutated. Field
// matching is case-insensitive and matches key substrings, so
// "api_token" is caught by "token".
func Redact(rec *domain.ErrorRecord, fields []string) *domain.ErrorRecord {
	if len(fields) == 0 || len(rec.Context) == 0 {
		return rec
	}

	dirty := false
	for _, e := range rec.Context {
		if sensitive(e.Key, fields) {
			dirty = true
			break
		}
	}
	if !dirty {
		return rec
	}

	cp := *rec
	cp.Context = make([]domain.ContextEntry, len(rec.Context))
	for i, e := range rec.Context {
		if sensitive(e.Key, fields) {
			e.Value = redactedValue
		}
		cp.Context[i] = e
	}
	return &cp
}

func sensitive(key string, fields []string) bool {
	k := strings.ToLower(key)
	for _, f := range fields {
		if f != "" && strings.Contains(k, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
