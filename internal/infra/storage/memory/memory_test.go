package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/remedy/internal/core/domain"
	"github.com/vietddude/remedy/internal/infra/storage"
)

func record(category domain.Category, ts time.Time) *domain.ErrorRecord {
	rec := domain.NewErrorRecord(category, domain.SeverityMedium, 0.9, "updater", "boom", nil)
	rec.Timestamp = ts
	return rec
}

func TestRecordStore_SaveAndGet(t *testing.T) {
	s := NewRecordStore()
	rec := record(domain.CategoryNetwork, time.Now())

	if err := s.SaveBatch(context.Background(), []*domain.ErrorRecord{rec}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != rec.ID {
		t.Errorf("got %s, want %s", got.ID, rec.ID)
	}

	if _, err := s.GetByID(context.Background(), "missing"); !errors.Is(err, storage.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordStore_RecentNewestFirst(t *testing.T) {
	s := NewRecordStore()
	now := time.Now()
	recs := []*domain.ErrorRecord{
		record(domain.CategoryNetwork, now.Add(-2*time.Minute)),
		record(domain.CategoryNetwork, now.Add(-1*time.Minute)),
		record(domain.CategoryNetwork, now),
	}
	if err := s.SaveBatch(context.Background(), recs); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].ID != recs[2].ID || got[1].ID != recs[1].ID {
		t.Errorf("wrong order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestRecordStore_RecentTiesNewestFirst(t *testing.T) {
	s := NewRecordStore()
	ts := time.Now()
	first := record(domain.CategoryUI, ts)
	second := record(domain.CategoryUI, ts)
	if err := s.SaveBatch(context.Background(), []*domain.ErrorRecord{first, second}); err != nil {
		t.Fatal(err)
	}

	got, err := s.Recent(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != second.ID {
		t.Errorf("later insertion must sort first on equal timestamps")
	}
}

func TestRecordStore_CountByCategory(t *testing.T) {
	s := NewRecordStore()
	now := time.Now()
	if err := s.SaveBatch(context.Background(), []*domain.ErrorRecord{
		record(domain.CategoryNetwork, now),
		record(domain.CategoryNetwork, now),
		record(domain.CategoryDownload, now),
	}); err != nil {
		t.Fatal(err)
	}

	counts, err := s.CountByCategory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if counts[domain.CategoryNetwork] != 2 || counts[domain.CategoryDownload] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestRecordStore_DeleteOlderThan(t *testing.T) {
	s := NewRecordStore()
	now := time.Now()
	old := record(domain.CategoryNetwork, now.Add(-2*time.Hour))
	fresh := record(domain.CategoryNetwork, now)
	if err := s.SaveBatch(context.Background(), []*domain.ErrorRecord{old, fresh}); err != nil {
		t.Fatal(err)
	}

	n, err := s.DeleteOlderThan(context.Background(), now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted %d, want 1", n)
	}
	if _, err := s.GetByID(context.Background(), old.ID); !errors.Is(err, storage.ErrRecordNotFound) {
		t.Error("old record should be evicted")
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}

func TestRecordStore_DuplicateIDsIgnored(t *testing.T) {
	s := NewRecordStore()
	rec := record(domain.CategoryNetwork, time.Now())
	if err := s.SaveBatch(context.Background(), []*domain.ErrorRecord{rec, rec}); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Errorf("len = %d, want 1", s.Len())
	}
}
