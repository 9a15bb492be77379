package session

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/averaging"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
)

type mockListener struct {
	mock.Mock
}

func (m *mockListener) StartListening() {
	m.Called()
}

func (m *mockListener) StopListening() {
	m.Called()
}

type recorder struct {
	values []float64
}

func (r *recorder) valueChanged(v float64) {
	r.values = append(r.values, v)
}

func newTestSession(t *testing.T) (*Session, *mockListener, *recorder) {
	t.Helper()

	l := new(mockListener)
	l.On("StartListening").Return()
	l.On("StopListening").Return()

	buf, err := averaging.New(averaging.DefaultCapacity)
	require.NoError(t, err)

	rec := &recorder{}
	s := New(domain.SensorTypeLight, l, buf,
		WithValueChanged(rec.valueChanged),
		WithLogger(zerolog.Nop()),
	)
	return s, l, rec
}

func lightSample(v float64) domain.Sample {
	return domain.Sample{Type: domain.SensorTypeLight, Value: v, Accuracy: 3}
}

func TestNew_StartsListening(t *testing.T) {
	s, l, _ := newTestSession(t)

	assert.True(t, s.Enabled())
	assert.Equal(t, EnabledActive, s.State())
	l.AssertNumberOfCalls(t, "StartListening", 1)
	l.AssertNumberOfCalls(t, "StopListening", 0)
}

func TestSetEnabled_Idempotent(t *testing.T) {
	s, l, _ := newTestSession(t)

	s.SetEnabled(true)
	s.SetEnabled(true)

	// Only the construction start
	l.AssertNumberOfCalls(t, "StartListening", 1)

	s.SetEnabled(false)
	s.SetEnabled(false)
	l.AssertNumberOfCalls(t, "StopListening", 1)

	s.SetEnabled(true)
	s.SetEnabled(true)
	l.AssertNumberOfCalls(t, "StartListening", 2)
}

func TestSetEnabled_FalseIgnoresSamples(t *testing.T) {
	s, l, rec := newTestSession(t)

	s.SetEnabled(false)
	assert.Equal(t, Disabled, s.State())
	l.AssertNumberOfCalls(t, "StopListening", 1)

	assert.False(t, s.OnRawSample(lightSample(100)))
	assert.False(t, s.OnRawSample(lightSample(200)))

	assert.Empty(t, rec.values)
	assert.Equal(t, 0.0, s.Average())
	l.AssertNumberOfCalls(t, "StopListening", 1)
}

func TestOnRawSample_TypeMismatch(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		s, _, rec := newTestSession(t)
		s.SetEnabled(enabled)

		accepted := s.OnRawSample(domain.Sample{Type: domain.SensorTypePressure, Value: 1013})

		assert.False(t, accepted)
		assert.Empty(t, rec.values)
		assert.Equal(t, 0.0, s.Average())
	}
}

func TestOnRawSample_ForwardsRawValue(t *testing.T) {
	s, _, rec := newTestSession(t)

	require.True(t, s.OnRawSample(lightSample(100)))
	require.True(t, s.OnRawSample(lightSample(300)))

	// Callback sees raw values, the average is only available on query
	assert.Equal(t, []float64{100, 300}, rec.values)
	assert.InDelta(t, 200.0, s.Average(), 1e-9)
	assert.Equal(t, 3, s.Accuracy())
}

func TestLifecycle_ResumeStop(t *testing.T) {
	s, l, _ := newTestSession(t)

	s.OnStop()
	assert.Equal(t, EnabledInactive, s.State())
	l.AssertNumberOfCalls(t, "StopListening", 1)

	s.OnResume()
	assert.Equal(t, EnabledActive, s.State())
	l.AssertNumberOfCalls(t, "StartListening", 2)
}

func TestLifecycle_DisabledIgnoresHost(t *testing.T) {
	s, l, _ := newTestSession(t)
	s.SetEnabled(false)

	s.OnStop()
	s.OnResume()
	s.OnStop()

	l.AssertNumberOfCalls(t, "StartListening", 1)
	l.AssertNumberOfCalls(t, "StopListening", 1)
	assert.Equal(t, Disabled, s.State())
}

func TestSetEnabled_WhileStoppedStartsListening(t *testing.T) {
	s, l, _ := newTestSession(t)

	s.OnStop()
	s.SetEnabled(false)
	s.SetEnabled(true)

	l.AssertNumberOfCalls(t, "StartListening", 2)
	assert.Equal(t, EnabledActive, s.State())
}

func TestOnRawSample_AcceptedWhileStopped(t *testing.T) {
	s, _, rec := newTestSession(t)

	s.OnStop()
	assert.True(t, s.OnRawSample(lightSample(42)))
	assert.Equal(t, []float64{42}, rec.values)
}

func TestOnDelete_Terminal(t *testing.T) {
	s, l, rec := newTestSession(t)

	s.OnDelete()
	assert.True(t, s.Deleted())
	l.AssertNumberOfCalls(t, "StopListening", 1)

	// Calls after delete are ignored
	s.OnResume()
	s.SetEnabled(false)
	s.OnDelete()
	assert.False(t, s.OnRawSample(lightSample(1)))

	l.AssertNumberOfCalls(t, "StartListening", 1)
	l.AssertNumberOfCalls(t, "StopListening", 1)
	assert.Empty(t, rec.values)
}

func TestOnDelete_WhileDisabled(t *testing.T) {
	s, l, _ := newTestSession(t)
	s.SetEnabled(false)

	s.OnDelete()
	l.AssertNumberOfCalls(t, "StopListening", 1)
}

func TestIsAvailable(t *testing.T) {
	assert.False(t, IsAvailable(nil))
	assert.False(t, IsAvailable([]domain.Descriptor{}))
	assert.True(t, IsAvailable([]domain.Descriptor{{Name: "light", Type: domain.SensorTypeLight}}))
}
