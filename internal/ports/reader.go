package ports

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
)

// DefaultRetention is how long recorded readings are kept
const DefaultRetention = 30 * 24 * time.Hour

// Recorder periodically stores the averaged sensor value
type Recorder struct {
	sensor    SensorController
	repo      domain.ReadingRepository
	interval  time.Duration
	retention time.Duration
	clock     clock.Clock
}

// RecorderOption configures a Recorder
type RecorderOption func(*Recorder)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c clock.Clock) RecorderOption {
	return func(r *Recorder) {
		r.clock = c
	}
}

// WithRetention sets how long readings are kept before pruning
func WithRetention(d time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.retention = d
	}
}

// NewRecorder creates a new background recorder
func NewRecorder(sensor SensorController, repo domain.ReadingRepository, interval time.Duration, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		sensor:    sensor,
		repo:      repo,
		interval:  interval,
		retention: DefaultRetention,
		clock:     clock.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins periodic recording
// This runs in a goroutine until context is cancelled
func (r *Recorder) Start(ctx context.Context) {
	log.Info().
		Dur("interval", r.interval).
		Dur("retention", r.retention).
		Msg("starting background recorder")

	ticker := r.clock.Ticker(r.interval)
	defer ticker.Stop()

	cleanupTicker := r.clock.Ticker(24 * time.Hour)
	defer cleanupTicker.Stop()

	// Record immediately on start
	r.recordOnce(ctx)

	for {
		select {
		case <-ticker.C:
			r.recordOnce(ctx)

		case <-cleanupTicker.C:
			if err := r.repo.DeleteOldReadings(ctx, r.retention); err != nil {
				log.Error().Err(err).Msg("failed to delete old readings")
			} else {
				log.Info().Dur("retention", r.retention).Msg("deleted old readings")
			}

		case <-ctx.Done():
			log.Info().Msg("stopping background recorder")
			return
		}
	}
}

// recordOnce reads the averaged value and saves it to the repository.
// It reports whether a reading was saved.
func (r *Recorder) recordOnce(ctx context.Context) bool {
	snap, err := r.sensor.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to read sensor")
		return false
	}

	if !snap.Enabled || snap.Samples == 0 {
		log.Debug().
			Bool("enabled", snap.Enabled).
			Int("samples", snap.Samples).
			Msg("nothing to record")
		return false
	}

	reading, err := domain.NewReading(snap.SensorType, snap.Value)
	if err != nil {
		log.Error().Err(err).Msg("failed to create reading")
		return false
	}
	reading.Timestamp = r.clock.Now()

	if err := r.repo.SaveReading(ctx, reading); err != nil {
		log.Error().Err(err).Msg("failed to save reading")
		return false
	}

	log.Info().
		Str("sensor", snap.SensorType.String()).
		Float64("value", snap.Value).
		Str("category", reading.Category()).
		Msg("recorded reading")
	return true
}
