package envsensor

import (
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/domain"
	"github.com/quentinrf/plant-monitor/services/envsensor/internal/ports"
)

// LightSensor measures the ambient light level in lux
type LightSensor struct {
	*EnvSensor
}

// NewLightSensor creates an enabled light sensor component
func NewLightSensor(manager ports.SensorManager, opts ...Option) (*LightSensor, error) {
	e, err := New(manager, domain.SensorTypeLight, opts...)
	if err != nil {
		return nil, err
	}
	return &LightSensor{EnvSensor: e}, nil
}

// Lux returns the averaged light level
func (l *LightSensor) Lux() float64 {
	return l.Value()
}
