// Package devicetest provides in-memory switches and directories for tests.
package devicetest

import (
	"context"
	"sync"

	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// Switch is an in-memory device.Switch. The zero value is an off switch
// with no address; use NewSwitch.
type Switch struct {
	mu sync.Mutex

	address string
	name    string
	on      bool

	// Errors returned by the matching method when non-nil.
	IsOnErr    error
	TurnOnErr  error
	TurnOffErr error

	IsOnCalls    int
	TurnOnCalls  int
	TurnOffCalls int
}

// NewSwitch returns an off switch.
func NewSwitch(address, name string) *Switch {
	return &Switch{address: address, name: name}
}

// Address implements device.Switch.
func (s *Switch) Address() string { return s.address }

// Name implements device.Switch.
func (s *Switch) Name() string { return s.name }

// IsOn implements device.Switch.
func (s *Switch) IsOn(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IsOnCalls++
	if s.IsOnErr != nil {
		return false, s.IsOnErr
	}
	return s.on, nil
}

// TurnOn implements device.Switch.
func (s *Switch) TurnOn(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TurnOnCalls++
	if s.TurnOnErr != nil {
		return s.TurnOnErr
	}
	s.on = true
	return nil
}

// TurnOff implements device.Switch.
func (s *Switch) TurnOff(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TurnOffCalls++
	if s.TurnOffErr != nil {
		return s.TurnOffErr
	}
	s.on = false
	return nil
}

// SetOn changes the physical state without counting a command, as a person
// pressing the button would.
func (s *Switch) SetOn(on bool) {
	s.mu.Lock()
	s.on = on
	s.mu.Unlock()
}

// On reports the physical state without counting a query.
func (s *Switch) On() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

// Directory returns queued discovery results in order, repeating the last one
// once the queue is exhausted.
type Directory struct {
	mu      sync.Mutex
	results []Result
	Calls   int
}

// Result is one scripted discovery outcome.
type Result struct {
	Switches []device.Switch
	Err      error
}

// NewDirectory returns a directory that always finds switches.
func NewDirectory(switches ...device.Switch) *Directory {
	return &Directory{results: []Result{{Switches: switches}}}
}

// Queue appends scripted results.
func (d *Directory) Queue(results ...Result) {
	d.mu.Lock()
	d.results = append(d.results, results...)
	d.mu.Unlock()
}

// Discover implements device.Directory.
func (d *Directory) Discover(context.Context) ([]device.Switch, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls++
	if len(d.results) == 0 {
		return nil, nil
	}
	r := d.results[0]
	if len(d.results) > 1 {
		d.results = d.results[1:]
	}
	return r.Switches, r.Err
}
