package ports

import (
	"context"
	"time"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
)

// Delay is the requested sample delivery rate
type Delay int

const (
	DelayFastest Delay = iota
	DelayGame
	DelayUI
	DelayNormal
)

// Period returns the nominal interval between samples for d
func (d Delay) Period() time.Duration {
	switch d {
	case DelayFastest:
		return time.Millisecond
	case DelayGame:
		return 20 * time.Millisecond
	case DelayUI:
		return 66 * time.Millisecond
	}
	return 200 * time.Millisecond
}

// SampleListener receives raw events from the host
type SampleListener interface {
	OnSensorChanged(sample domain.Sample)
	OnAccuracyChanged(sensor domain.Descriptor, accuracy int)
}

// SensorManager is the host collaborator that enumerates sensors and
// manages subscriptions. This is a PORT - adapters (Mock) implement it.
// Registering an already registered listener, or unregistering one that is
// not registered, must be harmless.
type SensorManager interface {
	// DefaultSensor returns the preferred sensor of type t, if any
	DefaultSensor(t domain.SensorType) (domain.Descriptor, bool)

	// SensorList returns every sensor of type t
	SensorList(t domain.SensorType) []domain.Descriptor

	// RegisterListener starts delivering samples from sensor to l
	RegisterListener(l SampleListener, sensor domain.Descriptor, delay Delay) bool

	// UnregisterListener stops all deliveries to l
	UnregisterListener(l SampleListener)
}

// ValueChanged carries a raw accepted sample
type ValueChanged struct {
	SensorID   string
	SensorType domain.SensorType
	Value      float64
	Accuracy   int
	Timestamp  time.Time
}

// Notifier is told about every accepted raw sample
type Notifier interface {
	ValueChanged(ev ValueChanged)
}

// Snapshot is a point-in-time view of a sensor component
type Snapshot struct {
	ID         string
	SensorType domain.SensorType
	Enabled    bool
	State      string
	Available  bool
	Value      float64 // moving average
	Samples    int     // values currently averaged
	Accuracy   int
}

// SensorController gives goroutines other than the host loop safe access to
// a sensor component
type SensorController interface {
	// Snapshot returns the current component state
	Snapshot(ctx context.Context) (Snapshot, error)

	// SetEnabled changes whether the component accepts samples
	SetEnabled(ctx context.Context, enabled bool) (Snapshot, error)

	// Inject delivers value as a raw sample of the component's type and
	// reports whether it was accepted
	Inject(ctx context.Context, value float64) (bool, error)
}
