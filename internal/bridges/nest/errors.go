package nest

import "errors"

var (
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("nest: sdm api unavailable")

	// ErrRequestFailed is returned for transport errors and non-2xx responses.
	ErrRequestFailed = errors.New("nest: request failed")

	// ErrNoThermostat is returned when the project has no thermostat device.
	ErrNoThermostat = errors.New("nest: no thermostat found")

	// ErrInvalidDevice is returned when a device lacks a required trait.
	ErrInvalidDevice = errors.New("nest: invalid device")
)
