// Package memory provides the in-memory record store used when no
// database is configured, and as the TTL-bounded cache backing the
// diagnostics endpoints.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/infra/storage"
)

// RecordStore implements storage.ErrorRecordRepository in memory.
type RecordStore struct {
	mu      sync.RWMutex
	byID    map[string]*domain.ErrorRecord
	ordered []*domain.ErrorRecord
}

// NewRecordStore creates an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{byID: make(map[string]*domain.ErrorRecord)}
}

// SaveBatch stores the records.
func (s *RecordStore) SaveBatch(_ context.Context, records []*domain.ErrorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if _, exists := s.byID[rec.ID]; exists {
			continue
		}
		s.byID[rec.ID] = rec
		s.ordered = append(s.ordered, rec)
	}
	return nil
}

// GetByID retrieves one record.
func (s *RecordStore) GetByID(_ context.Context, id string) (*domain.ErrorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, storage.ErrRecordNotFound
	}
	return rec, nil
}

// Recent returns up to limit records, newest first.
func (s *RecordStore) Recent(_ context.Context, limit int) ([]*domain.ErrorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Reversed insertion order keeps same-timestamp records newest first
	// under the stable sort.
	out := make([]*domain.ErrorRecord, 0, len(s.ordered))
	for i := len(s.ordered) - 1; i >= 0; i-- {
		out = append(out, s.ordered[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CountByCategory returns counts keyed by category.
func (s *RecordStore) CountByCategory(_ context.Context) (map[domain.Category]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.Category]int)
	for _, rec := range s.ordered {
		counts[rec.Category]++
	}
	return counts, nil
}

// DeleteOlderThan evicts expired records.
func (s *RecordStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.ordered[:0]
	removed := 0
	for _, rec := range s.ordered {
		if rec.Timestamp.Before(cutoff) {
			delete(s.byID, rec.ID)
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.ordered = kept
	return removed, nil
}

// Len returns the current record count.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ordered)
}
