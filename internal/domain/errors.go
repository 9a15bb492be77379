package domain

import "errors"

var (
	// ErrInvalidValue indicates a reading value is out of range for its sensor type
	ErrInvalidValue = errors.New("reading value out of range")

	// ErrUnknownSensorType indicates a sensor type this service does not handle
	ErrUnknownSensorType = errors.New("unknown sensor type")

	// ErrReadingNotFound indicates requested reading doesn't exist
	ErrReadingNotFound = errors.New("reading not found")

	// ErrSensorUnavailable indicates the host has no sensor of the requested type
	ErrSensorUnavailable = errors.New("sensor unavailable")
)
