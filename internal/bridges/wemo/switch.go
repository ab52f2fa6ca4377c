package wemo

import (
	"context"
	"net/http"
	"net/url"
)

// Switch is one WeMo device. It implements device.Switch.
type Switch struct {
	setup   Setup
	address string
	client  *http.Client
}

// NewSwitch builds a Switch from a parsed setup document. Devices that do not
// report a MAC fall back to host:port as their address.
func NewSwitch(setup Setup, client *http.Client) *Switch {
	address := setup.MAC
	if address == "" {
		if u, err := url.Parse(setup.ControlURL); err == nil {
			address = u.Host
		}
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Switch{setup: setup, address: address, client: client}
}

// Address returns the MAC address (upper-case, no separators).
func (s *Switch) Address() string { return s.address }

// Name returns the friendly name set in the WeMo app.
func (s *Switch) Name() string { return s.setup.Name }

// Setup returns the advertised device description.
func (s *Switch) Setup() Setup { return s.setup }

// IsOn queries the relay state.
func (s *Switch) IsOn(ctx context.Context) (bool, error) {
	return getBinaryState(ctx, s.client, s.setup.ControlURL)
}

// TurnOn closes the relay.
func (s *Switch) TurnOn(ctx context.Context) error {
	return setBinaryState(ctx, s.client, s.setup.ControlURL, true)
}

// TurnOff opens the relay.
func (s *Switch) TurnOff(ctx context.Context) error {
	return setBinaryState(ctx, s.client, s.setup.ControlURL, false)
}
