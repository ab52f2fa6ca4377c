package climate

import (
	"context"
	"sync"

	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// ─── Mock Thermostat ────────────────────────────────────────────────

type mockThermostat struct {
	mu       sync.Mutex
	readings []Reading
	errs     []error
	calls    int
	panicMsg string
}

// queue appends one result per call; the last result repeats.
func (m *mockThermostat) queue(r Reading, err error) {
	m.mu.Lock()
	m.readings = append(m.readings, r)
	m.errs = append(m.errs, err)
	m.mu.Unlock()
}

func (m *mockThermostat) CurrentReading(context.Context) (Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicMsg != "" {
		msg := m.panicMsg
		m.panicMsg = ""
		panic(msg)
	}
	i := m.calls
	if i >= len(m.readings) {
		i = len(m.readings) - 1
	}
	m.calls++
	return m.readings[i], m.errs[i]
}

// ─── Mock Switch Source ─────────────────────────────────────────────

type staticSource struct {
	switches []device.Switch
	err      error
}

func (s *staticSource) Refresh(context.Context) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return true, nil
}

func (s *staticSource) Snapshot() []device.Switch {
	return append([]device.Switch(nil), s.switches...)
}

// ─── Mock Fans ──────────────────────────────────────────────────────

type fanCall struct {
	id    string
	level string // empty for off
}

type mockFans struct {
	calls []fanCall
	err   error
}

func (m *mockFans) SetSpeed(_ context.Context, id, level string) error {
	m.calls = append(m.calls, fanCall{id, level})
	return m.err
}

func (m *mockFans) TurnOff(_ context.Context, id string) error {
	m.calls = append(m.calls, fanCall{id, ""})
	return m.err
}

// ─── Recording Sink ─────────────────────────────────────────────────

type recordingSink struct {
	mu      sync.Mutex
	reports []*CycleReport
	notify  chan struct{}
}

func (s *recordingSink) RecordCycle(_ context.Context, r *CycleReport) {
	s.mu.Lock()
	s.reports = append(s.reports, r)
	s.mu.Unlock()
	if s.notify != nil {
		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

// ─── Blocking Switch ────────────────────────────────────────────────

// blockingSwitch never answers until its context ends.
type blockingSwitch struct {
	address string
}

func (b blockingSwitch) Address() string { return b.address }
func (b blockingSwitch) Name() string    { return "Stuck" }

func (b blockingSwitch) IsOn(ctx context.Context) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func (b blockingSwitch) TurnOn(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b blockingSwitch) TurnOff(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// countActions counts outcomes matching action and address, successful or not.
func countActions(outcomes []Outcome, action Action, address string) int {
	n := 0
	for _, o := range outcomes {
		if o.Action == action && o.Address == address {
			n++
		}
	}
	return n
}

// Tracked reports whether address is recorded under any purpose.
func (l *Ledger) Tracked(address string) bool {
	for _, p := range Purposes {
		if l.Contains(p, address) {
			return true
		}
	}
	return false
}
