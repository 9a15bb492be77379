// Package session decides when a sensor subscription should be attached and
// which raw samples are accepted.
//
// A Session is not safe for concurrent use; the host must deliver lifecycle
// signals and samples serially.
package session

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/averaging"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
)

// ErrSessionDeleted is logged when a session is used after OnDelete
var ErrSessionDeleted = errors.New("session used after delete")

// Listener attaches and detaches the host sensor subscription.
// Duplicate calls must be tolerated.
type Listener interface {
	StartListening()
	StopListening()
}

// ValueChangedFunc receives every accepted raw value
type ValueChangedFunc func(value float64)

// State is the externally visible session state
type State int

const (
	Disabled State = iota
	EnabledInactive
	EnabledActive
)

func (s State) String() string {
	switch s {
	case Disabled:
		return "disabled"
	case EnabledInactive:
		return "enabled_inactive"
	case EnabledActive:
		return "enabled_active"
	}
	return "unknown"
}

// Session tracks user intent (enabled) and host lifecycle (active) for one
// sensor type and forwards accepted samples to an averaging buffer.
type Session struct {
	sensorType   domain.SensorType
	listener     Listener
	buffer       *averaging.Buffer
	valueChanged ValueChangedFunc
	logger       zerolog.Logger

	enabled  bool
	active   bool
	deleted  bool
	accuracy int
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger used for state transitions
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithValueChanged sets the callback fired for each accepted sample
func WithValueChanged(fn ValueChangedFunc) Option {
	return func(s *Session) {
		s.valueChanged = fn
	}
}

// New creates an enabled session and immediately starts listening
func New(sensorType domain.SensorType, listener Listener, buffer *averaging.Buffer, opts ...Option) *Session {
	s := &Session{
		sensorType: sensorType,
		listener:   listener,
		buffer:     buffer,
		logger:     log.Logger,
		enabled:    true,
		active:     true,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.listener.StartListening()
	return s
}

// Enabled reports whether the session accepts samples
func (s *Session) Enabled() bool {
	return s.enabled
}

// Deleted reports whether OnDelete has been called
func (s *Session) Deleted() bool {
	return s.deleted
}

// State returns the current state
func (s *Session) State() State {
	if !s.enabled {
		return Disabled
	}
	if s.active {
		return EnabledActive
	}
	return EnabledInactive
}

// Accuracy returns the accuracy of the last accepted sample
func (s *Session) Accuracy() int {
	return s.accuracy
}

// SensorType returns the type of sensor this session accepts
func (s *Session) SensorType() domain.SensorType {
	return s.sensorType
}

// Average returns the moving average of accepted samples
func (s *Session) Average() float64 {
	return s.buffer.Average()
}

// SampleCount returns how many values the average currently covers
func (s *Session) SampleCount() int {
	return s.buffer.Len()
}

// SetEnabled changes user intent. Enabling always starts listening, even
// while the host is stopped.
func (s *Session) SetEnabled(enabled bool) {
	if s.checkDeleted("SetEnabled") {
		return
	}
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	if enabled {
		s.active = true
		s.listener.StartListening()
	} else {
		s.listener.StopListening()
	}
	s.logger.Debug().Stringer("state", s.State()).Msg("enabled changed")
}

// OnResume is called by the host when it resumes
func (s *Session) OnResume() {
	if s.checkDeleted("OnResume") {
		return
	}
	s.active = true
	if s.enabled {
		s.listener.StartListening()
	}
	s.logger.Debug().Stringer("state", s.State()).Msg("resumed")
}

// OnStop is called by the host when it stops
func (s *Session) OnStop() {
	if s.checkDeleted("OnStop") {
		return
	}
	s.active = false
	if s.enabled {
		s.listener.StopListening()
	}
	s.logger.Debug().Stringer("state", s.State()).Msg("stopped")
}

// OnDelete is called once at teardown. The session must not be used afterwards.
func (s *Session) OnDelete() {
	if s.checkDeleted("OnDelete") {
		return
	}
	s.active = false
	if s.enabled {
		s.listener.StopListening()
	}
	s.deleted = true
	s.logger.Debug().Msg("deleted")
}

// OnRawSample forwards sample to the buffer and the value changed callback
// when the session is enabled and the sample type matches. The host
// lifecycle phase is not consulted. Returns whether the sample was accepted.
func (s *Session) OnRawSample(sample domain.Sample) bool {
	if s.checkDeleted("OnRawSample") {
		return false
	}
	if !s.enabled || sample.Type != s.sensorType {
		return false
	}
	s.accuracy = sample.Accuracy
	s.buffer.Insert(sample.Value)
	if s.valueChanged != nil {
		s.valueChanged(sample.Value)
	}
	return true
}

// IsAvailable reports whether the host enumerated any sensor of the type of interest
func IsAvailable(sensors []domain.Descriptor) bool {
	return len(sensors) > 0
}

func (s *Session) checkDeleted(op string) bool {
	if !s.deleted {
		return false
	}
	s.logger.Error().Err(ErrSessionDeleted).Str("op", op).Msg("ignoring call")
	return true
}
