package climate

import "errors"

// Domain errors for the climate control loop.
var (
	// ErrThermostatUnavailable wraps a failed thermostat read. The cycle is skipped.
	ErrThermostatUnavailable = errors.New("climate: thermostat unavailable")

	// ErrUnexpectedStatus is recorded when the thermostat reports a status
	// the policy has no rule for.
	ErrUnexpectedStatus = errors.New("climate: unexpected hvac status")

	// ErrCyclePanic is recorded when a cycle was abandoned after a panic.
	ErrCyclePanic = errors.New("climate: cycle panicked")
)
