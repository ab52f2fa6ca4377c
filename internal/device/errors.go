package device

import "errors"

// Domain errors for the device registry.
var (
	// ErrDiscoveryFailed wraps any error returned by Directory.Discover.
	ErrDiscoveryFailed = errors.New("device: discovery failed")
)
