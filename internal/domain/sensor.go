package domain

import (
	"fmt"
	"time"
)

// SensorType identifies a kind of single-value sensor.
// Values follow the numbering used by Android's Sensor.TYPE_* constants.
type SensorType int

const (
	SensorTypeLight              SensorType = 5
	SensorTypePressure           SensorType = 6
	SensorTypeRelativeHumidity   SensorType = 12
	SensorTypeAmbientTemperature SensorType = 13
)

// String returns a short lowercase name for the sensor type
func (t SensorType) String() string {
	switch t {
	case SensorTypeLight:
		return "light"
	case SensorTypePressure:
		return "pressure"
	case SensorTypeRelativeHumidity:
		return "relative_humidity"
	case SensorTypeAmbientTemperature:
		return "ambient_temperature"
	}
	return fmt.Sprintf("sensor(%d)", int(t))
}

// Unit returns the measurement unit reported by sensors of this type
func (t SensorType) Unit() string {
	switch t {
	case SensorTypeLight:
		return "lx"
	case SensorTypePressure:
		return "hPa"
	case SensorTypeRelativeHumidity:
		return "%"
	case SensorTypeAmbientTemperature:
		return "°C"
	}
	return ""
}

// Known reports whether t is one of the supported single-value sensor types
func (t SensorType) Known() bool {
	switch t {
	case SensorTypeLight, SensorTypePressure, SensorTypeRelativeHumidity, SensorTypeAmbientTemperature:
		return true
	}
	return false
}

// ParseSensorType maps a name produced by String back to a SensorType
func ParseSensorType(name string) (SensorType, error) {
	for _, t := range []SensorType{
		SensorTypeLight,
		SensorTypePressure,
		SensorTypeRelativeHumidity,
		SensorTypeAmbientTemperature,
	} {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSensorType, name)
}

// Descriptor describes a physical sensor the host can enumerate
type Descriptor struct {
	Name       string
	Vendor     string
	Type       SensorType
	MaxRange   float64
	Resolution float64
}

// Sample is a single raw event delivered by the host
type Sample struct {
	Type      SensorType
	Value     float64
	Accuracy  int
	Timestamp time.Time
}
