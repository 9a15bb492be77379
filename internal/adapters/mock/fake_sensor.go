package mock

import (
	"math/rand"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/ports"
)

// Dispatcher runs deliveries on the host's event goroutine
type Dispatcher interface {
	Post(fn func()) error
}

// FakeSensor simulates one physical sensor producing values around a base
type FakeSensor struct {
	Descriptor domain.Descriptor
	BaseValue  float64 // average value, e.g. 500 lux for indoor lighting
	Variation  float64 // +/- range, e.g. 100 means 400-600
	Accuracy   int
}

// SensorManager simulates a host sensor manager.
// It implements ports.SensorManager.
type SensorManager struct {
	dispatcher Dispatcher
	clock      clock.Clock
	rng        *rand.Rand

	mu        sync.Mutex
	sensors   []FakeSensor
	listeners map[ports.SampleListener]chan struct{}
	wg        sync.WaitGroup
}

// Option configures a SensorManager
type Option func(*SensorManager)

// WithSensor adds a simulated sensor
func WithSensor(s FakeSensor) Option {
	return func(m *SensorManager) {
		m.sensors = append(m.sensors, s)
	}
}

// WithClock replaces the wall clock used for delivery ticks
func WithClock(c clock.Clock) Option {
	return func(m *SensorManager) {
		m.clock = c
	}
}

// WithSeed makes generated values reproducible
func WithSeed(seed int64) Option {
	return func(m *SensorManager) {
		m.rng = rand.New(rand.NewSource(seed))
	}
}

// NewSensorManager creates a manager delivering through dispatcher
func NewSensorManager(dispatcher Dispatcher, opts ...Option) *SensorManager {
	m := &SensorManager{
		dispatcher: dispatcher,
		clock:      clock.New(),
		rng:        rand.New(rand.NewSource(rand.Int63())),
		listeners:  make(map[ports.SampleListener]chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultSensor returns the first simulated sensor of type t
func (m *SensorManager) DefaultSensor(t domain.SensorType) (domain.Descriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.sensors {
		if s.Descriptor.Type == t {
			return s.Descriptor, true
		}
	}
	return domain.Descriptor{}, false
}

// SensorList returns all simulated sensors of type t
func (m *SensorManager) SensorList(t domain.SensorType) []domain.Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Descriptor
	for _, s := range m.sensors {
		if s.Descriptor.Type == t {
			out = append(out, s.Descriptor)
		}
	}
	return out
}

// RegisterListener starts periodic delivery to l. Registering the same
// listener twice keeps the existing delivery.
func (m *SensorManager) RegisterListener(l ports.SampleListener, sensor domain.Descriptor, delay ports.Delay) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	fake, ok := m.lookup(sensor)
	if !ok {
		return false
	}
	if _, exists := m.listeners[l]; exists {
		return true
	}

	stop := make(chan struct{})
	m.listeners[l] = stop

	ticker := m.clock.Ticker(delay.Period())
	m.wg.Add(1)
	go m.deliver(l, fake, ticker, stop)

	log.Debug().
		Str("device", sensor.Name).
		Dur("period", delay.Period()).
		Msg("listener registered")
	return true
}

// UnregisterListener stops delivery to l. Unknown listeners are ignored.
func (m *SensorManager) UnregisterListener(l ports.SampleListener) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stop, ok := m.listeners[l]
	if !ok {
		return
	}
	close(stop)
	delete(m.listeners, l)
	log.Debug().Msg("listener unregistered")
}

// Listeners returns how many listeners are registered
func (m *SensorManager) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// Close stops every delivery and waits for them to exit
func (m *SensorManager) Close() error {
	m.mu.Lock()
	for l, stop := range m.listeners {
		close(stop)
		delete(m.listeners, l)
	}
	m.mu.Unlock()

	m.wg.Wait()
	return nil
}

func (m *SensorManager) lookup(d domain.Descriptor) (FakeSensor, bool) {
	for _, s := range m.sensors {
		if s.Descriptor.Name == d.Name && s.Descriptor.Type == d.Type {
			return s, true
		}
	}
	return FakeSensor{}, false
}

func (m *SensorManager) deliver(l ports.SampleListener, fake FakeSensor, ticker *clock.Ticker, stop chan struct{}) {
	defer m.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			sample := domain.Sample{
				Type:      fake.Descriptor.Type,
				Value:     m.read(fake),
				Accuracy:  fake.Accuracy,
				Timestamp: m.clock.Now(),
			}
			if err := m.dispatcher.Post(func() { l.OnSensorChanged(sample) }); err != nil {
				log.Debug().Err(err).Msg("dropping sample")
				return
			}
		}
	}
}

// read returns a simulated value around the base with random variance
func (m *SensorManager) read(fake FakeSensor) float64 {
	m.mu.Lock()
	variance := (m.rng.Float64() - 0.5) * 2 * fake.Variation
	m.mu.Unlock()

	value := fake.BaseValue + variance
	if value < 0 && fake.Descriptor.Type != domain.SensorTypeAmbientTemperature {
		value = 0
	}
	return value
}
