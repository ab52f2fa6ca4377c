package climate

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// DefaultDeviceTimeout bounds a single device call when none is configured.
const DefaultDeviceTimeout = 10 * time.Second

// Actuator issues switch and fan commands and keeps the ledger and the
// off-command retry counters in step with their results.
type Actuator struct {
	ledger     *Ledger
	retries    map[string]int
	maxRetries int
	timeout    time.Duration
	logger     Logger
}

// NewActuator creates an actuator that records into ledger.
//
// Parameters:
//   - ledger: Ledger updated on successful commands
//   - maxRetries: Consecutive off-command failures tolerated before giving up
//   - timeout: Upper bound for each individual device call
func NewActuator(ledger *Ledger, maxRetries int, timeout time.Duration) *Actuator {
	if timeout <= 0 {
		timeout = DefaultDeviceTimeout
	}
	return &Actuator{
		ledger:     ledger,
		retries:    make(map[string]int),
		maxRetries: maxRetries,
		timeout:    timeout,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the actuator.
func (a *Actuator) SetLogger(logger Logger) {
	a.logger = logger
}

// call runs fn under the per-device timeout.
func (a *Actuator) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return fn(ctx)
}

// IsOn queries sw under the per-device timeout.
func (a *Actuator) IsOn(ctx context.Context, sw device.Switch) (bool, error) {
	var on bool
	err := a.call(ctx, func(ctx context.Context) error {
		var err error
		on, err = sw.IsOn(ctx)
		return err
	})
	return on, err
}

// Activate turns sw on and records it under purpose.
// On failure the ledger is left unchanged.
func (a *Actuator) Activate(ctx context.Context, sw device.Switch, purpose Purpose) Outcome {
	out := Outcome{Action: ActionTurnOn, Address: sw.Address(), Name: sw.Name(), Purpose: purpose}

	a.logger.Info("turning switch on", "switch", sw.Name(), "address", sw.Address(), "purpose", purpose)
	if err := a.call(ctx, sw.TurnOn); err != nil {
		a.logger.Warn("switch turn on failed", "switch", sw.Name(), "address", sw.Address(), "error", err)
		out.Err = err
		return out
	}

	a.ledger.Add(purpose, sw)
	return out
}

// DeactivatePurpose turns off every switch recorded under purpose, except
// those for which skip returns true.
//
// A successful off-command removes the switch from purpose and clears its
// retry counter. A failure increments the counter; once the counter exceeds
// the configured maximum the switch is removed anyway and the counter cleared.
// Its physical state is then unknown and no longer managed.
func (a *Actuator) DeactivatePurpose(ctx context.Context, purpose Purpose, skip func(address string) bool) []Outcome {
	var outcomes []Outcome

	for _, sw := range a.ledger.Members(purpose) {
		addr := sw.Address()
		if skip != nil && skip(addr) {
			continue
		}

		out := Outcome{Action: ActionTurnOff, Address: addr, Name: sw.Name(), Purpose: purpose}

		a.logger.Info("turning switch off", "switch", sw.Name(), "address", addr, "purpose", purpose)
		err := a.call(ctx, sw.TurnOff)
		if err == nil {
			a.ledger.Remove(purpose, addr)
			delete(a.retries, addr)
			outcomes = append(outcomes, out)
			continue
		}

		a.retries[addr]++
		out.Err = err
		out.Attempt = a.retries[addr]

		if a.retries[addr] > a.maxRetries {
			a.ledger.Remove(purpose, addr)
			delete(a.retries, addr)
			out.GaveUp = true
			a.logger.Error("giving up on switch", "switch", sw.Name(), "address", addr,
				"purpose", purpose, "retries", a.maxRetries, "error", err)
		} else {
			a.logger.Warn("switch turn off failed", "switch", sw.Name(), "address", addr,
				"attempt", out.Attempt, "error", err)
		}
		outcomes = append(outcomes, out)
	}

	return outcomes
}

// DriveFan sets fan to level, or turns it off when level is empty.
func (a *Actuator) DriveFan(ctx context.Context, fans FanController, fanID, level string) Outcome {
	if level == "" {
		out := Outcome{Action: ActionFanOff, Address: fanID}
		out.Err = a.call(ctx, func(ctx context.Context) error { return fans.TurnOff(ctx, fanID) })
		if out.Err != nil {
			a.logger.Warn("fan turn off failed", "fan", fanID, "error", out.Err)
		} else {
			a.logger.Info("fan turned off", "fan", fanID)
		}
		return out
	}

	out := Outcome{Action: ActionFanSpeed, Address: fanID, Detail: level}
	out.Err = a.call(ctx, func(ctx context.Context) error { return fans.SetSpeed(ctx, fanID, level) })
	if out.Err != nil {
		a.logger.Warn("fan set speed failed", "fan", fanID, "level", level, "error", out.Err)
	} else {
		a.logger.Info("fan speed set", "fan", fanID, "level", level)
	}
	return out
}

// RetryCounts returns a copy of the outstanding off-command failure counters.
func (a *Actuator) RetryCounts() map[string]int {
	out := make(map[string]int, len(a.retries))
	for k, v := range a.retries {
		out[k] = v
	}
	return out
}
