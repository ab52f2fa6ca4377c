package mqtt

import "errors"

// Sentinel errors; compare with errors.Is.
var (
	// ErrNotConnected is returned while the broker connection is down.
	// Paho keeps reconnecting in the background.
	ErrNotConnected = errors.New("mqtt: not connected")

	// ErrConnectionFailed is returned when the first connection attempt fails.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed wraps broker or timeout failures.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrInvalidMessage is returned by Publish for an empty topic, QoS above
	// 2, an oversized payload, or an empty payload that is not retained.
	ErrInvalidMessage = errors.New("mqtt: invalid message")
)
