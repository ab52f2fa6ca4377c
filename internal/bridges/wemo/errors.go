package wemo

import "errors"

var (
	// ErrSearchFailed is returned when the SSDP search itself fails.
	ErrSearchFailed = errors.New("wemo: ssdp search failed")

	// ErrInvalidSetup is returned when setup.xml cannot be fetched or parsed.
	ErrInvalidSetup = errors.New("wemo: invalid setup.xml")

	// ErrRequestFailed is returned when a SOAP call fails at the transport or HTTP level.
	ErrRequestFailed = errors.New("wemo: request failed")

	// ErrUnexpectedState is returned when BinaryState is not a known value.
	ErrUnexpectedState = errors.New("wemo: unexpected binary state")
)
