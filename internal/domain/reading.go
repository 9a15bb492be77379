package domain

import (
	"fmt"
	"time"
)

// Reading is a persisted snapshot of a sensor's averaged value
type Reading struct {
	ID         int64
	SensorType SensorType
	Value      float64
	Timestamp  time.Time
}

// NewReading creates a reading with validation
func NewReading(sensorType SensorType, value float64) (*Reading, error) {
	if !sensorType.Known() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSensorType, int(sensorType))
	}

	// Only temperature may go below zero
	switch sensorType {
	case SensorTypeLight, SensorTypeRelativeHumidity, SensorTypePressure:
		if value < 0 {
			return nil, fmt.Errorf("%w: %s %v", ErrInvalidValue, sensorType, value)
		}
	}

	return &Reading{
		SensorType: sensorType,
		Value:      value,
		Timestamp:  time.Now(),
	}, nil
}

// IsLowLight returns true if reading indicates low light conditions
// < 200 lux is considered low light
func (r *Reading) IsLowLight() bool {
	return r.Value < 200
}

// IsMediumLight returns true if reading indicates medium light
// 200-2500 lux is medium light
func (r *Reading) IsMediumLight() bool {
	return r.Value >= 200 && r.Value < 2500
}

// IsHighLight returns true if reading indicates high light
func (r *Reading) IsHighLight() bool {
	return r.Value >= 2500
}

// Category returns a human-readable category. Only light readings are
// categorized; other types return an empty string.
func (r *Reading) Category() string {
	if r.SensorType != SensorTypeLight {
		return ""
	}
	if r.IsLowLight() {
		return "Low Light"
	} else if r.IsMediumLight() {
		return "Medium Light"
	}
	return "High Light"
}
