// Package envsensor binds a sensor session to a host sensor manager for a
// single-value environment sensor such as ambient light.
//
// All methods must be called from the host's event goroutine.
package envsensor

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/averaging"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/ports"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/session"
)

// EnvSensor is a sensor component for one sensor type
type EnvSensor struct {
	id         string
	sensorType domain.SensorType
	manager    ports.SensorManager
	sensor     domain.Descriptor
	hasSensor  bool
	delay      ports.Delay
	logger     zerolog.Logger

	session   *session.Session
	notifiers []ports.Notifier
	current   domain.Sample
}

type config struct {
	bufferSize int
	delay      ports.Delay
	logger     zerolog.Logger
}

// Option configures an EnvSensor
type Option func(*config)

// WithBufferSize sets how many values are averaged
func WithBufferSize(n int) Option {
	return func(c *config) {
		c.bufferSize = n
	}
}

// WithDelay sets the delivery rate requested from the manager
func WithDelay(d ports.Delay) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithLogger sets the component logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New creates an enabled component and starts listening
func New(manager ports.SensorManager, sensorType domain.SensorType, opts ...Option) (*EnvSensor, error) {
	if !sensorType.Known() {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownSensorType, int(sensorType))
	}

	cfg := config{
		bufferSize: averaging.DefaultCapacity,
		delay:      ports.DelayGame,
		logger:     log.Logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	buffer, err := averaging.New(cfg.bufferSize)
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}

	id := uuid.NewString()
	e := &EnvSensor{
		id:         id,
		sensorType: sensorType,
		manager:    manager,
		delay:      cfg.delay,
		logger: cfg.logger.With().
			Str("component", id).
			Str("sensor", sensorType.String()).
			Logger(),
	}
	e.sensor, e.hasSensor = manager.DefaultSensor(sensorType)
	if !e.hasSensor {
		e.logger.Warn().Msg("no default sensor; component will not receive samples")
	}

	e.session = session.New(sensorType, subscription{e}, buffer,
		session.WithValueChanged(e.valueChanged),
		session.WithLogger(e.logger),
	)
	return e, nil
}

// ID returns the unique component id
func (e *EnvSensor) ID() string {
	return e.id
}

// SensorType returns the sensor type of interest
func (e *EnvSensor) SensorType() domain.SensorType {
	return e.sensorType
}

// Subscribe adds n to the receivers of raw accepted values
func (e *EnvSensor) Subscribe(n ports.Notifier) {
	e.notifiers = append(e.notifiers, n)
}

// Available reports whether the host has a sensor of this type
func (e *EnvSensor) Available() bool {
	return session.IsAvailable(e.manager.SensorList(e.sensorType))
}

// Enabled reports whether the component generates events
func (e *EnvSensor) Enabled() bool {
	return e.session.Enabled()
}

// SetEnabled turns event generation on or off
func (e *EnvSensor) SetEnabled(enabled bool) {
	e.session.SetEnabled(enabled)
}

// Value returns the moving average of recent samples
func (e *EnvSensor) Value() float64 {
	return e.session.Average()
}

// Accuracy returns the accuracy of the last accepted sample
func (e *EnvSensor) Accuracy() int {
	return e.session.Accuracy()
}

// Samples returns how many values are currently averaged
func (e *EnvSensor) Samples() int {
	return e.session.SampleCount()
}

func (e *EnvSensor) OnResume() {
	e.session.OnResume()
}

func (e *EnvSensor) OnStop() {
	e.session.OnStop()
}

func (e *EnvSensor) OnDelete() {
	e.session.OnDelete()
}

// OnSensorChanged implements ports.SampleListener
func (e *EnvSensor) OnSensorChanged(sample domain.Sample) {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now()
	}
	e.current = sample
	e.session.OnRawSample(sample)
}

// OnAccuracyChanged implements ports.SampleListener. Accuracy is taken from
// each sample instead.
func (e *EnvSensor) OnAccuracyChanged(sensor domain.Descriptor, accuracy int) {}

// Inject delivers value as a sample of this component's type
func (e *EnvSensor) Inject(value float64) bool {
	sample := domain.Sample{
		Type:      e.sensorType,
		Value:     value,
		Timestamp: time.Now(),
	}
	e.current = sample
	return e.session.OnRawSample(sample)
}

// Snapshot returns a transport-friendly view of the component
func (e *EnvSensor) Snapshot() ports.Snapshot {
	return ports.Snapshot{
		ID:         e.id,
		SensorType: e.sensorType,
		Enabled:    e.session.Enabled(),
		State:      e.session.State().String(),
		Available:  e.Available(),
		Value:      e.session.Average(),
		Samples:    e.session.SampleCount(),
		Accuracy:   e.session.Accuracy(),
	}
}

func (e *EnvSensor) valueChanged(value float64) {
	ev := ports.ValueChanged{
		SensorID:   e.id,
		SensorType: e.sensorType,
		Value:      value,
		Accuracy:   e.current.Accuracy,
		Timestamp:  e.current.Timestamp,
	}
	for _, n := range e.notifiers {
		n.ValueChanged(ev)
	}
}

func (e *EnvSensor) startListening() {
	if !e.hasSensor {
		return
	}
	if !e.manager.RegisterListener(e, e.sensor, e.delay) {
		e.logger.Warn().Str("device", e.sensor.Name).Msg("sensor manager refused listener")
		return
	}
	e.logger.Debug().Str("device", e.sensor.Name).Msg("listening")
}

func (e *EnvSensor) stopListening() {
	e.manager.UnregisterListener(e)
	e.logger.Debug().Msg("stopped listening")
}

// subscription adapts the component to session.Listener without exposing
// the start/stop methods on EnvSensor itself
type subscription struct {
	e *EnvSensor
}

func (s subscription) StartListening() { s.e.startListening() }

func (s subscription) StopListening() { s.e.stopListening() }
