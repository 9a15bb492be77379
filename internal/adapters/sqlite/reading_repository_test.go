package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
)

func newTestRepo(t *testing.T) *ReadingRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewReadingRepository(dbPath)
	if err != nil {
		t.Fatalf("failed to create SQLite repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func makeReading(t *testing.T, sensorType domain.SensorType, value float64, ts time.Time) *domain.Reading {
	t.Helper()
	r, err := domain.NewReading(sensorType, value)
	if err != nil {
		t.Fatalf("unexpected error creating reading: %v", err)
	}
	r.Timestamp = ts
	return r
}

func TestSaveAndGetReading(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ts := time.Now()
	reading := makeReading(t, domain.SensorTypePressure, 1013.25, ts)

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
	if got.Value != reading.Value {
		t.Errorf("got value %v, want %v", got.Value, reading.Value)
	}
	if got.SensorType != domain.SensorTypePressure {
		t.Errorf("got sensor type %v, want pressure", got.SensorType)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("got timestamp %v, want %v", got.Timestamp, ts)
	}
}

func TestGetLatestReading_Empty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetLatestReading(ctx)
	if err != domain.ErrReadingNotFound {
		t.Errorf("expected ErrReadingNotFound, got %v", err)
	}
}

func TestGetLatestReading(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now()
	_ = repo.SaveReading(ctx, makeReading(t, domain.SensorTypeLight, 100, now.Add(-time.Minute)))
	_ = repo.SaveReading(ctx, makeReading(t, domain.SensorTypeLight, 250, now))

	latest, err := repo.GetLatestReading(ctx)
	if err != nil {
		t.Fatalf("GetLatestReading failed: %v", err)
	}
	if latest.Value != 250 {
		t.Errorf("expected latest value 250, got %v", latest.Value)
	}
}

func TestGetReadingsInRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	before := now.Add(-2 * time.Hour)
	within := now.Add(-1 * time.Hour)
	after := now.Add(1 * time.Hour)

	_ = repo.SaveReading(ctx, makeReading(t, domain.SensorTypeLight, 100, before))
	_ = repo.SaveReading(ctx, makeReading(t, domain.SensorTypeLight, 200, within))
	_ = repo.SaveReading(ctx, makeReading(t, domain.SensorTypeLight, 300, after))

	// Range: [now-90m, now), only the within reading should appear
	results, err := repo.GetReadingsInRange(ctx, now.Add(-90*time.Minute), now)
	if err != nil {
		t.Fatalf("GetReadingsInRange failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 reading, got %d", len(results))
	}
	if results[0].Value != 200 {
		t.Errorf("expected value 200, got %v", results[0].Value)
	}
}

func TestGetReadingsInRange_Bounds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ts := time.Now().UTC().Truncate(time.Second)
	_ = repo.SaveReading(ctx, makeReading(t, domain.SensorTypeLight, 100, ts))

	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{name: "inclusive start", start: ts, end: ts.Add(time.Second), want: 1},
		{name: "exclusive end", start: ts.Add(-time.Second), end: ts, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := repo.GetReadingsInRange(ctx, tt.start, tt.end)
			if err != nil {
				t.Fatalf("GetReadingsInRange failed: %v", err)
			}
			if len(results) != tt.want {
				t.Errorf("expected %d results, got %d", tt.want, len(results))
			}
		})
	}
}

func TestDeleteOldReadings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now()
	old := makeReading(t, domain.SensorTypeLight, 100, now.Add(-48*time.Hour))
	recent := makeReading(t, domain.SensorTypeLight, 200, now.Add(-1*time.Hour))
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
