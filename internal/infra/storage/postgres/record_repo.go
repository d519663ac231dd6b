package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/infra/storage"
)

// RecordRepo implements storage.ErrorRecordRepository using PostgreSQL.
type RecordRepo struct {
	db *DB
}

// NewRecordRepo creates a new PostgreSQL record repository.
func NewRecordRepo(db *DB) *RecordRepo {
	return &RecordRepo{db: db}
}

// recordRow is the flattened table shape.
type recordRow struct {
	ID          string    `db:"id"`
	Category    string    `db:"category"`
	Severity    string    `db:"severity"`
	Confidence  float64   `db:"confidence"`
	Source      string    `db:"source"`
	Message     string    `db:"message"`
	TS          time.Time `db:"ts"`
	Seq         int64     `db:"seq"`
	Context     []byte    `db:"context"`
	CauseIDs    []byte    `db:"cause_ids"`
	Recovered   bool      `db:"recovered"`
	ActionTaken string    `db:"action_taken"`
	Attempts    int       `db:"attempts"`
	ElapsedMS   int64     `db:"elapsed_ms"`
	Failure     string    `db:"failure"`
}

func toRow(rec *domain.ErrorRecord) (*recordRow, error) {
	ctxJSON, err := json.Marshal(rec.Context)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal context: %w", err)
	}
	causeJSON, err := json.Marshal(rec.CauseIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cause ids: %w", err)
	}

	row := &recordRow{
		ID:         rec.ID,
		Category:   string(rec.Category),
		Severity:   string(rec.Severity),
		Confidence: rec.Confidence,
		Source:     rec.Source,
		Message:    rec.Message,
		TS:         rec.Timestamp,
		Seq:        int64(rec.Seq),
		Context:    ctxJSON,
		CauseIDs:   causeJSON,
	}
	if res := rec.Result; res != nil {
		row.Recovered = res.Success
		row.ActionTaken = string(res.ActionTaken)
		row.Attempts = res.Attempts
		row.ElapsedMS = res.Elapsed.Milliseconds()
		row.Failure = res.Failure
	}
	return row, nil
}

func (r *recordRow) toDomain() (*domain.ErrorRecord, error) {
	rec := &domain.ErrorRecord{
		ID:         r.ID,
		Category:   domain.Category(r.Category),
		Severity:   domain.Severity(r.Severity),
		Confidence: r.Confidence,
		Source:     r.Source,
		Message:    r.Message,
		Timestamp:  r.TS,
		Seq:        uint64(r.Seq),
	}
	if len(r.Context) > 0 {
		if err := json.Unmarshal(r.Context, &rec.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}
	if len(r.CauseIDs) > 0 {
		if err := json.Unmarshal(r.CauseIDs, &rec.CauseIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cause ids: %w", err)
		}
	}
	if r.ActionTaken != "" || r.Attempts > 0 || r.Recovered {
		rec.Result = &domain.RecoveryResult{
			Success:     r.Recovered,
			ActionTaken: domain.Action(r.ActionTaken),
			Attempts:    r.Attempts,
			Elapsed:     time.Duration(r.ElapsedMS) * time.Millisecond,
			Failure:     r.Failure,
		}
	}
	return rec, nil
}

const insertQuery = `
	INSERT INTO error_records (
		id, category, severity, confidence, source, message, ts, seq,
		context, cause_ids, recovered, action_taken, attempts, elapsed_ms, failure
	) VALUES (
		:id, :category, :severity, :confidence, :source, :message, :ts, :seq,
		:context, :cause_ids, :recovered, :action_taken, :attempts, :elapsed_ms, :failure
	)
	ON CONFLICT (id) DO UPDATE SET
		recovered = EXCLUDED.recovered,
		action_taken = EXCLUDED.action_taken,
		attempts = EXCLUDED.attempts,
		elapsed_ms = EXCLUDED.elapsed_ms,
		failure = EXCLUDED.failure
`

// SaveBatch inserts the records in one transaction.
func (r *RecordRepo) SaveBatch(ctx context.Context, records []*domain.ErrorRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]*recordRow, 0, len(records))
	for _, rec := range records {
		row, err := toRow(rec)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, insertQuery, row); err != nil {
			return fmt.Errorf("failed to archive record %s: %w", row.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit archive batch: %w", err)
	}
	return nil
}

const selectColumns = `
	id, category, severity, confidence, source, message, ts, seq,
	context, cause_ids, recovered, action_taken, attempts, elapsed_ms, failure
`

// GetByID retrieves a single archived record.
func (r *RecordRepo) GetByID(ctx context.Context, id string) (*domain.ErrorRecord, error) {
	var row recordRow
	query := `SELECT ` + selectColumns + ` FROM error_records WHERE id = $1`
	err := r.db.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return row.toDomain()
}

// Recent returns up to limit records, newest first.
func (r *RecordRepo) Recent(ctx context.Context, limit int) ([]*domain.ErrorRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []recordRow
	query := `SELECT ` + selectColumns + ` FROM error_records ORDER BY ts DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent records: %w", err)
	}

	out := make([]*domain.ErrorRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// CountByCategory returns archived record counts keyed by category.
func (r *RecordRepo) CountByCategory(ctx context.Context) (map[domain.Category]int, error) {
	var rows []struct {
		Category string `db:"category"`
		Count    int    `db:"count"`
	}
	query := `SELECT category, COUNT(*) AS count FROM error_records GROUP BY category`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	counts := make(map[domain.Category]int, len(rows))
	for _, row := range rows {
		counts[domain.Category(row.Category)] = row.Count
	}
	return counts, nil
}

// DeleteOlderThan evicts archived records older than cutoff.
func (r *RecordRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM error_records WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

// ArchiveBatch adapts SaveBatch to the sink's Archiver interface.
func (r *RecordRepo) ArchiveBatch(ctx context.Context, records []*domain.ErrorRecord) error {
	return r.SaveBatch(ctx, records)
}
