package hubitat

import "errors"

var (
	// ErrInvalidConfig is returned when the hub URL, app id or token is missing.
	ErrInvalidConfig = errors.New("hubitat: invalid configuration")

	// ErrInvalidCommand is returned for an empty fan id or speed level.
	ErrInvalidCommand = errors.New("hubitat: invalid command")

	// ErrRequestFailed is returned when the hub is unreachable or rejects a command.
	ErrRequestFailed = errors.New("hubitat: request failed")
)
