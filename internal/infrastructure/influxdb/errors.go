package influxdb

import "errors"

// Sentinel errors for the telemetry store.
var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: disabled in configuration")

	// ErrUnreachable means the server did not answer a ping or reported unhealthy.
	ErrUnreachable = errors.New("influxdb: server unreachable")

	// ErrClosed is returned by HealthCheck on a client that was never
	// connected or has been closed.
	ErrClosed = errors.New("influxdb: client closed")

	// ErrWriteFailed wraps errors delivered asynchronously by the batch writer.
	ErrWriteFailed = errors.New("influxdb: write failed")
)
