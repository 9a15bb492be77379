package memory

import (
	"context"
	"testing"
	"time"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
)

func makeReading(t *testing.T, value float64, ts time.Time) *domain.Reading {
	t.Helper()
	r, err := domain.NewReading(domain.SensorTypeLight, value)
	if err != nil {
		t.Fatalf("unexpected error creating reading: %v", err)
	}
	r.Timestamp = ts
	return r
}

func TestSaveAndGetReading(t *testing.T) {
	repo := NewReadingRepository()
	ctx := context.Background()

	reading := makeReading(t, 500, time.Now())
	if err := repo.SaveReading(ctx, reading); err != nil {
		t.Fatalf("SaveReading failed: %v", err)
	}
	if reading.ID == 0 {
		t.Fatal("expected ID to be set after save")
	}

	got, err := repo.GetReading(ctx, reading.ID)
	if err != nil {
		t.Fatalf("GetReading failed: %v", err)
	}
	if got.Value != 500 {
		t.Errorf("got value %v, want 500", got.Value)
	}

	if _, err := repo.GetReading(ctx, 99); err != domain.ErrReadingNotFound {
		t.Errorf("expected ErrReadingNotFound, got %v", err)
	}
}

func TestGetReadingsInRange_HalfOpen(t *testing.T) {
	repo := NewReadingRepository()
	ctx := context.Background()

	ts := time.Now()
	_ = repo.SaveReading(ctx, makeReading(t, 100, ts))
	_ = repo.SaveReading(ctx, makeReading(t, 200, ts.Add(time.Second)))

	results, err := repo.GetReadingsInRange(ctx, ts, ts.Add(time.Second))
	if err != nil {
		t.Fatalf("GetReadingsInRange failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(results))
	}
	if results[0].Value != 100 {
		t.Errorf("expected value 100, got %v", results[0].Value)
	}
}

func TestGetLatestReading(t *testing.T) {
	repo := NewReadingRepository()
	ctx := context.Background()

	if _, err := repo.GetLatestReading(ctx); err != domain.ErrReadingNotFound {
		t.Fatalf("expected ErrReadingNotFound, got %v", err)
	}

	now := time.Now()
	_ = repo.SaveReading(ctx, makeReading(t, 100, now.Add(-time.Hour)))
	_ = repo.SaveReading(ctx, makeReading(t, 300, now))

	latest, err := repo.GetLatestReading(ctx)
	if err != nil {
		t.Fatalf("GetLatestReading failed: %v", err)
	}
	if latest.Value != 300 {
		t.Errorf("expected latest value 300, got %v", latest.Value)
	}
}

func TestDeleteOldReadings(t *testing.T) {
	repo := NewReadingRepository()
	ctx := context.Background()

	now := time.Now()
	old := makeReading(t, 100, now.Add(-48*time.Hour))
	recent := makeReading(t, 200, now.Add(-time.Hour))
	_ = repo.SaveReading(ctx, old)
	_ = repo.SaveReading(ctx, recent)

	if err := repo.DeleteOldReadings(ctx, 24*time.Hour); err != nil {
		t.Fatalf("DeleteOldReadings failed: %v", err)
	}

	if _, err := repo.GetReading(ctx, old.ID); err != domain.ErrReadingNotFound {
		t.Errorf("expected old reading to be deleted, got err: %v", err)
	}
	if _, err := repo.GetReading(ctx, recent.ID); err != nil {
		t.Errorf("expected recent reading to remain, got err: %v", err)
	}
}
