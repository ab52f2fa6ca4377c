package climate

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// SwitchSource is the controller's view of the device registry.
type SwitchSource interface {
	Refresh(ctx context.Context) (bool, error)
	Snapshot() []device.Switch
}

// Settings configures a Controller.
type Settings struct {
	PollingPeriod time.Duration
	MinSleep      time.Duration
	DeviceTimeout time.Duration

	MaxPowerOffRetries int

	Policy PolicyConfig
}

// Snapshot is a point-in-time copy of the controller's state for readers
// outside the control goroutine.
type Snapshot struct {
	State         ControlState              `json:"state"`
	Ledger        map[Purpose][]device.Info `json:"ledger"`
	RetryCounts   map[string]int            `json:"retry_counts"`
	KnownSwitches []device.Info             `json:"known_switches"`
	LastReading   *Reading                  `json:"last_reading,omitempty"`
	LastReport    *CycleReport              `json:"last_report,omitempty"`
	Cycles        uint64                    `json:"cycles"`

	// DiscoveryResults is how many discovery results the switch source
	// currently merges, when it reports one.
	DiscoveryResults int `json:"discovery_results"`
}

// historySource is implemented by switch sources that keep a discovery
// history, such as *device.Registry.
type historySource interface {
	HistoryLen() int
}

// Controller runs the climate control loop.
//
// A single goroutine calls Run (or RunCycle); the ledger, retry counters and
// control state are touched only from there. Snapshot may be called from any
// goroutine.
type Controller struct {
	settings   Settings
	switches   SwitchSource
	thermostat Thermostat

	ledger   *Ledger
	actuator *Actuator
	override *OverrideDetector
	policy   *Policy
	state    ControlState
	sinks    []Sink
	cycle    uint64

	now    func() time.Time
	logger Logger

	mu     sync.RWMutex
	status Snapshot
}

// NewController wires the control loop components together.
//
// Parameters:
//   - settings: Loop timing, retry budget and policy thresholds
//   - switches: Source of known switches (normally *device.Registry)
//   - thermostat: Source of climate readings
//   - catalog: Switch name to tag mapping
//
// Returns:
//   - *Controller: Ready to Run
func NewController(settings Settings, switches SwitchSource, thermostat Thermostat, catalog *Catalog) *Controller {
	ledger := NewLedger()
	actuator := NewActuator(ledger, settings.MaxPowerOffRetries, settings.DeviceTimeout)

	c := &Controller{
		settings:   settings,
		switches:   switches,
		thermostat: thermostat,
		ledger:     ledger,
		actuator:   actuator,
		override:   NewOverrideDetector(actuator),
		policy:     NewPolicy(settings.Policy, catalog),
		state:      NewControlState(),
		now:        time.Now,
		logger:     noopLogger{},
	}
	c.status = Snapshot{State: c.state, Ledger: ledger.Describe(), RetryCounts: map[string]int{}}
	return c
}

// SetLogger sets the logger for the controller and its components.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
	c.actuator.SetLogger(logger)
	c.override.SetLogger(logger)
	c.policy.SetLogger(logger)
}

// SetFanController enables fan control on HVAC status changes.
func (c *Controller) SetFanController(fans FanController) {
	c.policy.SetFanController(fans)
}

// AddSink registers a receiver for cycle reports.
func (c *Controller) AddSink(sink Sink) {
	c.sinks = append(c.sinks, sink)
}

// Run executes cycles back to back until ctx is cancelled.
//
// After each cycle it sleeps for the remainder of the polling period, but
// never less than MinSleep. Cancellation is honoured between cycles and
// during sleep. Run returns nil on cancellation.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("climate loop starting",
		"polling_period", c.settings.PollingPeriod, "min_sleep", c.settings.MinSleep)

	for {
		if ctx.Err() != nil {
			c.logger.Info("climate loop stopped")
			return nil
		}

		start := c.now()
		c.RunCycle(ctx)
		wait := sleepDuration(c.settings.PollingPeriod, c.settings.MinSleep, c.now().Sub(start))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info("climate loop stopped")
			return nil
		case <-timer.C:
		}
	}
}

// sleepDuration is period minus elapsed, clamped below by floor.
func sleepDuration(period, floor, elapsed time.Duration) time.Duration {
	wait := period - elapsed
	if wait < floor {
		return floor
	}
	return wait
}

// RunCycle executes one complete control cycle and returns its report.
//
// A panic anywhere in the cycle is recovered here: it is logged with its
// stack, recorded as the skip reason, and the next cycle proceeds normally.
func (c *Controller) RunCycle(ctx context.Context) (report *CycleReport) {
	c.cycle++
	report = &CycleReport{
		Cycle:          c.cycle,
		StartedAt:      c.now(),
		PreviousStatus: c.state.PreviousStatus,
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: %v", ErrCyclePanic, r)
			c.logger.Error("climate cycle panicked", "cycle", report.Cycle, "error", err, "stack", string(debug.Stack()))
			report.SkipReason = err.Error()
		}
		c.finish(ctx, report)
	}()

	c.runCycle(ctx, report)
	return report
}

func (c *Controller) runCycle(ctx context.Context, report *CycleReport) {
	refreshed, err := c.switches.Refresh(ctx)
	report.Discovered = refreshed
	if err != nil {
		report.DiscoveryError = err.Error()
	}
	known := c.switches.Snapshot()
	report.KnownSwitches = len(known)

	reading, err := c.readThermostat(ctx)
	if err != nil {
		c.logger.Warn("thermostat read failed, skipping cycle", "error", err)
		report.SkipReason = err.Error()
		return
	}
	report.Reading = &reading

	args := append(temperatureArgs(c.logger, "temperature", reading.AmbientCelsius),
		"setpoint_celsius", reading.HeatSetpointCelsius,
		"status", reading.Status,
		"humidity", reading.HumidityPercent)
	c.logger.Info("thermostat reading", args...)

	report.Outcomes = append(report.Outcomes, c.override.Reconcile(ctx, c.ledger, known)...)

	report.StatusChanged = reading.Status != c.state.PreviousStatus
	report.Outcomes = append(report.Outcomes, c.policy.Apply(ctx, &c.state, reading, known, c.actuator)...)
}

func (c *Controller) readThermostat(ctx context.Context) (Reading, error) {
	reading, err := c.thermostat.CurrentReading(ctx)
	if err != nil {
		if errors.Is(err, ErrThermostatUnavailable) {
			return Reading{}, err
		}
		return Reading{}, fmt.Errorf("%w: %w", ErrThermostatUnavailable, err)
	}
	if reading.ReadAt.IsZero() {
		reading.ReadAt = c.now()
	}
	return reading, nil
}

// finish stamps the report, publishes the status snapshot and notifies sinks.
func (c *Controller) finish(ctx context.Context, report *CycleReport) {
	report.Duration = c.now().Sub(report.StartedAt)
	report.State = c.state
	report.Ledger = c.ledger.Describe()

	c.mu.Lock()
	c.status.State = c.state
	c.status.Ledger = report.Ledger
	c.status.RetryCounts = c.actuator.RetryCounts()
	c.status.KnownSwitches = device.DescribeAll(c.switches.Snapshot())
	if report.Reading != nil {
		c.status.LastReading = report.Reading
	}
	c.status.LastReport = report
	c.status.Cycles = report.Cycle
	if h, ok := c.switches.(historySource); ok {
		c.status.DiscoveryResults = h.HistoryLen()
	}
	c.mu.Unlock()

	c.logger.Debug("climate cycle complete", "cycle", report.Cycle, "duration", report.Duration,
		"outcomes", len(report.Outcomes), "failures", report.Failures(), "skipped", report.Skipped())

	for _, sink := range c.sinks {
		c.notify(ctx, sink, report)
	}
}

// notify isolates the loop from a misbehaving sink.
func (c *Controller) notify(ctx context.Context, sink Sink, report *CycleReport) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("cycle report sink panicked", "sink", fmt.Sprintf("%T", sink), "panic", r)
		}
	}()
	sink.RecordCycle(ctx, report)
}

// Snapshot returns the state published at the end of the last cycle.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}
