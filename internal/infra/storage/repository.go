package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
)

// ErrRecordNotFound is returned when a record id is unknown.
var ErrRecordNotFound = errors.New("error record not found")

// ErrorRecordRepository stores classified records with their recovery
// outcomes for diagnostics and operations queries.
type ErrorRecordRepository interface {
	// SaveBatch persists a batch of records.
	SaveBatch(ctx context.Context, records []*domain.ErrorRecord) error

	// GetByID retrieves a single record.
	GetByID(ctx context.Context, id string) (*domain.ErrorRecord, error)

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.ErrorRecord, error)

	// CountByCategory returns record counts keyed by category.
	CountByCategory(ctx context.Context) (map[domain.Category]int, error)

	// DeleteOlderThan evicts records with a timestamp before cutoff
	// and returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
