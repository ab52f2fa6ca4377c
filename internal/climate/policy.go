package climate

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// PolicyConfig holds the thresholds the policy engine decides against.
type PolicyConfig struct {
	// AuxHeatThresholdCelsius is the setpoint deficit that engages aux heat.
	AuxHeatThresholdCelsius float64

	HumidityTargetPercent    float64
	HumidityThresholdPercent float64

	// Fans are driven on every HVAC status change when a FanController is set.
	Fans []FanBinding
}

// Policy decides which switches to turn on and off each cycle.
type Policy struct {
	cfg     PolicyConfig
	catalog *Catalog
	fans    FanController
	logger  Logger
}

// NewPolicy creates a policy engine over catalog.
func NewPolicy(cfg PolicyConfig, catalog *Catalog) *Policy {
	return &Policy{cfg: cfg, catalog: catalog, logger: noopLogger{}}
}

// SetLogger sets the logger for the policy engine.
func (p *Policy) SetLogger(logger Logger) {
	p.logger = logger
}

// SetFanController enables fan control on status changes.
func (p *Policy) SetFanController(fans FanController) {
	p.fans = fans
}

// Apply runs the policy rules for one reading in order: status change,
// humidity, aux heat and the deactivation sweep. state is updated in place,
// including PreviousStatus and FirstCycle.
//
// Parameters:
//   - state: Cross-cycle control state owned by the caller
//   - reading: This cycle's thermostat reading
//   - switches: Currently known switches
//   - act: Actuator that executes commands and updates the ledger
//
// Returns:
//   - []Outcome: Every command and query made, in order
func (p *Policy) Apply(ctx context.Context, state *ControlState, reading Reading,
	switches []device.Switch, act *Actuator) []Outcome {
	var outcomes []Outcome
	ledger := act.ledger

	if reading.Status != state.PreviousStatus {
		outcomes = append(outcomes, p.onStatusChange(ctx, state, reading.Status, switches, act)...)
	}

	outcomes = append(outcomes, p.applyHumidity(ctx, state, reading, switches, act)...)
	outcomes = append(outcomes, p.applyAuxHeat(ctx, state, reading, switches, act)...)

	inHumidifying := func(addr string) bool { return ledger.Contains(PurposeHumidifying, addr) }
	switch reading.Status {
	case StatusCooling:
		outcomes = append(outcomes, act.DeactivatePurpose(ctx, PurposeHeating, inHumidifying)...)
	case StatusHeating:
		outcomes = append(outcomes, act.DeactivatePurpose(ctx, PurposeCooling, inHumidifying)...)
	default:
		outcomes = append(outcomes, act.DeactivatePurpose(ctx, PurposeHeating, inHumidifying)...)
		outcomes = append(outcomes, act.DeactivatePurpose(ctx, PurposeCooling, inHumidifying)...)
	}

	state.PreviousStatus = reading.Status
	state.FirstCycle = false
	return outcomes
}

// onStatusChange turns on every switch tagged for the new status and drives
// the fans. Aux heat re-arms on any change.
func (p *Policy) onStatusChange(ctx context.Context, state *ControlState, status Status,
	switches []device.Switch, act *Actuator) []Outcome {
	var outcomes []Outcome

	p.logger.Info("hvac status changed", "from", state.PreviousStatus, "to", status)
	state.AuxHeatEngaged = false

	switch status {
	case StatusCooling:
		for _, sw := range p.catalog.Matching(switches, TagCooling) {
			outcomes = append(outcomes, act.Activate(ctx, sw, PurposeCooling))
		}
	case StatusHeating:
		for _, sw := range p.catalog.Matching(switches, TagHeating) {
			outcomes = append(outcomes, act.Activate(ctx, sw, PurposeHeating))
		}
	case StatusOff:
	default:
		p.logger.Warn("unexpected hvac status, no switches activated", "status", status)
		outcomes = append(outcomes, Outcome{
			Action: ActionQuery,
			Detail: string(status),
			Err:    fmt.Errorf("%w: %q", ErrUnexpectedStatus, status),
		})
	}

	if p.fans != nil && status.Known() {
		for _, fan := range p.cfg.Fans {
			outcomes = append(outcomes, act.DriveFan(ctx, p.fans, fan.ID, fan.Speeds[status]))
		}
	}

	return outcomes
}

// applyHumidity engages humidifiers once per dry spell and releases them when
// the air is humid enough. Humidifiers that also hold a heating or cooling
// claim stay on.
func (p *Policy) applyHumidity(ctx context.Context, state *ControlState, reading Reading,
	switches []device.Switch, act *Actuator) []Outcome {
	low := p.cfg.HumidityTargetPercent - p.cfg.HumidityThresholdPercent
	high := p.cfg.HumidityTargetPercent + p.cfg.HumidityThresholdPercent
	ledger := act.ledger

	switch {
	case reading.HumidityPercent < low && !state.HumidifiersEngaged:
		p.logger.Info("humidity below target, engaging humidifiers", "humidity", reading.HumidityPercent, "low", low)
		state.HumidifiersEngaged = true
		return p.activateIfOff(ctx, state, p.catalog.Matching(switches, TagHumidifier), PurposeHumidifying, act)

	case reading.HumidityPercent > high:
		if state.HumidifiersEngaged {
			p.logger.Info("humidity above target, releasing humidifiers", "humidity", reading.HumidityPercent, "high", high)
		}
		state.HumidifiersEngaged = false
		dualPurpose := func(addr string) bool {
			return ledger.Contains(PurposeHeating, addr) || ledger.Contains(PurposeCooling, addr)
		}
		return act.DeactivatePurpose(ctx, PurposeHumidifying, dualPurpose)
	}

	return nil
}

// applyAuxHeat engages aux heaters at most once per HEATING episode when the
// room is far enough below the setpoint.
func (p *Policy) applyAuxHeat(ctx context.Context, state *ControlState, reading Reading,
	switches []device.Switch, act *Actuator) []Outcome {
	if reading.Status != StatusHeating || state.AuxHeatEngaged {
		return nil
	}
	if reading.HeatDeficit() <= p.cfg.AuxHeatThresholdCelsius {
		return nil
	}

	p.logger.Info("heat deficit above threshold, engaging aux heat",
		"deficit_celsius", reading.HeatDeficit(), "threshold_celsius", p.cfg.AuxHeatThresholdCelsius)
	state.AuxHeatEngaged = true
	return p.activateIfOff(ctx, state, p.catalog.Matching(switches, TagAuxHeating), PurposeHeating, act)
}

// activateIfOff turns on the switches that are currently off, or all of them
// on the first cycle. A switch whose state cannot be read is left alone.
func (p *Policy) activateIfOff(ctx context.Context, state *ControlState, candidates []device.Switch,
	purpose Purpose, act *Actuator) []Outcome {
	var outcomes []Outcome

	for _, sw := range candidates {
		if !state.FirstCycle {
			on, err := act.IsOn(ctx, sw)
			if err != nil {
				p.logger.Warn("switch state unknown, not activating", "switch", sw.Name(), "address", sw.Address(), "error", err)
				outcomes = append(outcomes, Outcome{Action: ActionQuery, Address: sw.Address(), Name: sw.Name(), Purpose: purpose, Err: err})
				continue
			}
			if on {
				p.logger.Debug("switch already on, leaving under manual control", "switch", sw.Name(), "purpose", purpose)
				continue
			}
		}
		outcomes = append(outcomes, act.Activate(ctx, sw, purpose))
	}

	return outcomes
}
