package climate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-climate/internal/device"
	"github.com/nerrad567/gray-logic-climate/internal/device/devicetest"
)

func testSettings() Settings {
	return Settings{
		PollingPeriod:      time.Minute,
		MinSleep:           10 * time.Second,
		DeviceTimeout:      time.Second,
		MaxPowerOffRetries: 2,
		Policy: PolicyConfig{
			AuxHeatThresholdCelsius:  3,
			HumidityTargetPercent:    35,
			HumidityThresholdPercent: 5,
		},
	}
}

func testCatalog() *Catalog {
	return NewCatalog(map[Tag][]string{
		TagHeating:    {"Living Room Fan"},
		TagCooling:    {"Box Fan"},
		TagAuxHeating: {"Space Heater", "Oil Radiator"},
		TagHumidifier: {"Humidifier", "Warm Mist"},
	})
}

// ============================================================================
// Scenarios
// ============================================================================

func TestController_AuxHeatScenario(t *testing.T) {
	heater := devicetest.NewSwitch("AA", "Space Heater")
	radiator := devicetest.NewSwitch("BB", "Oil Radiator")
	circulator := devicetest.NewSwitch("CC", "Living Room Fan")
	radiator.SetOn(true) // switched on by hand before heating started

	thermostat := &mockThermostat{}
	thermostat.queue(Reading{AmbientCelsius: 20, HeatSetpointCelsius: 20, Status: StatusOff, HumidityPercent: 35}, nil)
	thermostat.queue(Reading{AmbientCelsius: 18.0, HeatSetpointCelsius: 22.0, Status: StatusHeating, HumidityPercent: 35}, nil)

	source := &staticSource{switches: []device.Switch{heater, radiator, circulator}}
	c := NewController(testSettings(), source, thermostat, testCatalog())
	ctx := context.Background()

	c.RunCycle(ctx)
	report := c.RunCycle(ctx)

	if !report.StatusChanged || report.PreviousStatus != StatusOff {
		t.Errorf("report = %+v, want OFF→HEATING status change", report)
	}
	if !report.State.AuxHeatEngaged {
		t.Fatal("deficit 4.0°C > 3.0°C must engage aux heat")
	}
	if !heater.On() || heater.TurnOnCalls != 1 {
		t.Errorf("space heater on=%v calls=%d, want on after one command", heater.On(), heater.TurnOnCalls)
	}
	if radiator.TurnOnCalls != 0 {
		t.Error("aux heat must not claim an aux heater that was already on")
	}
	if !circulator.On() {
		t.Error("heating-tagged switch should turn on on status change")
	}

	st := c.Snapshot()
	if got := len(st.Ledger[PurposeHeating]); got != 2 {
		t.Errorf("heating ledger = %v, want heater and circulator", st.Ledger[PurposeHeating])
	}
	if st.LastReading == nil || st.LastReading.Status != StatusHeating {
		t.Errorf("LastReading = %+v, want HEATING", st.LastReading)
	}

	// Still cold next cycle: no second activation in this episode.
	heater.SetOn(false)
	c.RunCycle(ctx)
	if heater.TurnOnCalls != 1 {
		t.Errorf("heater TurnOnCalls = %d, want 1 (aux once per episode)", heater.TurnOnCalls)
	}
}

func TestController_HumidityScenario(t *testing.T) {
	humidifier := devicetest.NewSwitch("AA", "Humidifier")
	warmMist := devicetest.NewSwitch("BB", "Warm Mist")
	boxFan := devicetest.NewSwitch("CC", "Box Fan")

	catalog := NewCatalog(map[Tag][]string{
		TagHumidifier: {"Humidifier", "Warm Mist", "Box Fan"},
		TagCooling:    {"Box Fan"},
	})

	reading := func(status Status, humidity float64) Reading {
		return Reading{AmbientCelsius: 24, HeatSetpointCelsius: 20, Status: status, HumidityPercent: humidity}
	}
	thermostat := &mockThermostat{}
	thermostat.queue(reading(StatusOff, 35), nil)
	thermostat.queue(reading(StatusOff, 28), nil)
	thermostat.queue(reading(StatusOff, 28), nil)
	thermostat.queue(reading(StatusCooling, 28), nil)
	thermostat.queue(reading(StatusCooling, 41), nil)

	source := &staticSource{switches: []device.Switch{humidifier, warmMist, boxFan}}
	c := NewController(testSettings(), source, thermostat, catalog)
	ctx := context.Background()

	c.RunCycle(ctx) // first cycle, humidity inside the band
	c.RunCycle(ctx) // 28%: engage every off humidifier
	c.RunCycle(ctx) // 28%: already engaged
	c.RunCycle(ctx) // COOLING: box fan also claimed for cooling

	for _, sw := range []*devicetest.Switch{humidifier, warmMist} {
		if sw.TurnOnCalls != 1 {
			t.Errorf("%s TurnOnCalls = %d, want exactly 1", sw.Name(), sw.TurnOnCalls)
		}
	}
	st := c.Snapshot()
	if !st.State.HumidifiersEngaged {
		t.Fatal("humidifiers should be engaged at 28%")
	}
	if len(st.Ledger[PurposeHumidifying]) != 3 || len(st.Ledger[PurposeCooling]) != 1 {
		t.Errorf("ledger = %v, want 3 humidifying and 1 cooling", st.Ledger)
	}

	report := c.RunCycle(ctx) // 41%: disengage
	if report.State.HumidifiersEngaged {
		t.Error("humidifiers should disengage at 41%")
	}
	if humidifier.On() || warmMist.On() {
		t.Errorf("humidifier on=%v warm mist on=%v, want both off", humidifier.On(), warmMist.On())
	}
	if !boxFan.On() || boxFan.TurnOffCalls != 0 {
		t.Error("box fan is also cooling and must stay on")
	}
}

// ============================================================================
// Failure handling
// ============================================================================

func TestController_ThermostatFailureSkipsCycle(t *testing.T) {
	fan := devicetest.NewSwitch("AA", "Box Fan")
	thermostat := &mockThermostat{}
	thermostat.queue(Reading{Status: StatusCooling, HumidityPercent: 35}, nil)
	thermostat.queue(Reading{}, errors.New("401 unauthorized"))
	thermostat.queue(Reading{Status: StatusCooling, HumidityPercent: 35}, nil)

	c := NewController(testSettings(), &staticSource{switches: []device.Switch{fan}}, thermostat, testCatalog())
	ctx := context.Background()

	c.RunCycle(ctx)
	skipped := c.RunCycle(ctx)

	if !skipped.Skipped() || !strings.Contains(skipped.SkipReason, "thermostat unavailable") {
		t.Errorf("SkipReason = %q, want thermostat unavailable", skipped.SkipReason)
	}
	if skipped.Reading != nil || len(skipped.Outcomes) != 0 {
		t.Errorf("skipped cycle made decisions: %+v", skipped.Outcomes)
	}
	if skipped.State.PreviousStatus != StatusCooling {
		t.Errorf("PreviousStatus = %q, want COOLING retained", skipped.State.PreviousStatus)
	}

	resumed := c.RunCycle(ctx)
	if resumed.StatusChanged {
		t.Error("status did not change across the failed read")
	}
	if fan.TurnOnCalls != 1 {
		t.Errorf("fan TurnOnCalls = %d, want 1", fan.TurnOnCalls)
	}
	if c.Snapshot().LastReading == nil {
		t.Error("Status should keep the last good reading")
	}
}

func TestController_ThermostatErrorWrapping(t *testing.T) {
	cause := errors.New("dns failure")
	thermostat := &mockThermostat{}
	thermostat.queue(Reading{}, cause)
	c := NewController(testSettings(), &staticSource{}, thermostat, testCatalog())

	_, err := c.readThermostat(context.Background())
	if !errors.Is(err, ErrThermostatUnavailable) || !errors.Is(err, cause) {
		t.Errorf("readThermostat() error = %v, want ErrThermostatUnavailable wrapping cause", err)
	}
}

func TestController_PanicRecovered(t *testing.T) {
	thermostat := &mockThermostat{panicMsg: "nil map"}
	thermostat.queue(Reading{Status: StatusOff, HumidityPercent: 35}, nil)
	sink := &recordingSink{}

	c := NewController(testSettings(), &staticSource{}, thermostat, testCatalog())
	c.AddSink(sink)
	ctx := context.Background()

	report := c.RunCycle(ctx)
	if !strings.Contains(report.SkipReason, "panicked") {
		t.Errorf("SkipReason = %q, want panic recorded", report.SkipReason)
	}

	next := c.RunCycle(ctx)
	if next.Skipped() {
		t.Errorf("cycle after panic skipped: %q", next.SkipReason)
	}
	if sink.count() != 2 {
		t.Errorf("sink received %d reports, want 2", sink.count())
	}
}

type panickingSink struct{}

func (panickingSink) RecordCycle(context.Context, *CycleReport) { panic("sink bug") }

func TestController_SinkPanicIsolated(t *testing.T) {
	thermostat := &mockThermostat{}
	thermostat.queue(Reading{Status: StatusOff, HumidityPercent: 35}, nil)
	after := &recordingSink{}

	c := NewController(testSettings(), &staticSource{}, thermostat, testCatalog())
	c.AddSink(panickingSink{})
	c.AddSink(after)

	c.RunCycle(context.Background())
	if after.count() != 1 {
		t.Errorf("sink after a panicking sink received %d reports, want 1", after.count())
	}
}

func TestController_DiscoveryFailureContinues(t *testing.T) {
	fan := devicetest.NewSwitch("AA", "Box Fan")
	thermostat := &mockThermostat{}
	thermostat.queue(Reading{Status: StatusCooling, HumidityPercent: 35}, nil)
	source := &staticSource{switches: []device.Switch{fan}, err: device.ErrDiscoveryFailed}

	c := NewController(testSettings(), source, thermostat, testCatalog())
	report := c.RunCycle(context.Background())

	if report.DiscoveryError == "" || report.Discovered {
		t.Errorf("report = %+v, want discovery error recorded", report)
	}
	if report.Skipped() || !fan.On() {
		t.Error("a failed discovery must not stop the cycle")
	}
}

func TestController_OverrideAcrossCycles(t *testing.T) {
	fan := devicetest.NewSwitch("AA", "Box Fan")
	thermostat := &mockThermostat{}
	thermostat.queue(Reading{Status: StatusCooling, HumidityPercent: 35}, nil)
	thermostat.queue(Reading{Status: StatusOff, HumidityPercent: 35}, nil)

	c := NewController(testSettings(), &staticSource{switches: []device.Switch{fan}}, thermostat, testCatalog())
	ctx := context.Background()

	c.RunCycle(ctx)
	fan.SetOn(false) // the person wants it off

	report := c.RunCycle(ctx)
	if report.Count(ActionOverride) != 1 {
		t.Errorf("override outcomes = %d, want 1", report.Count(ActionOverride))
	}
	if fan.TurnOffCalls != 0 {
		t.Errorf("fan TurnOffCalls = %d, want 0 after manual override", fan.TurnOffCalls)
	}
}

func TestController_GiveUpVisibleInStatus(t *testing.T) {
	fan := devicetest.NewSwitch("AA", "Box Fan")
	thermostat := &mockThermostat{}
	thermostat.queue(Reading{Status: StatusCooling, HumidityPercent: 35}, nil)
	thermostat.queue(Reading{Status: StatusOff, HumidityPercent: 35}, nil)

	c := NewController(testSettings(), &staticSource{switches: []device.Switch{fan}}, thermostat, testCatalog())
	ctx := context.Background()
	c.RunCycle(ctx)

	fan.TurnOffErr = errUnreachable
	c.RunCycle(ctx)
	if got := c.Snapshot().RetryCounts["AA"]; got != 1 {
		t.Errorf("RetryCounts[AA] = %d, want 1", got)
	}
	c.RunCycle(ctx)
	last := c.RunCycle(ctx)

	var gaveUp bool
	for _, o := range last.Outcomes {
		gaveUp = gaveUp || o.GaveUp
	}
	if !gaveUp {
		t.Error("third failed off should give up with MaxPowerOffRetries=2")
	}
	if len(c.Snapshot().Ledger[PurposeCooling]) != 0 {
		t.Error("given-up switch still in ledger")
	}
}

// ============================================================================
// Loop
// ============================================================================

func TestSleepDuration(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    time.Duration
	}{
		{"fast cycle", 5 * time.Second, 55 * time.Second},
		{"exact period", time.Minute, 10 * time.Second},
		{"overrun", 3 * time.Minute, 10 * time.Second},
		{"near floor", 49 * time.Second, 11 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sleepDuration(time.Minute, 10*time.Second, tt.elapsed); got != tt.want {
				t.Errorf("sleepDuration(%v) = %v, want %v", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestController_RunStopsOnCancel(t *testing.T) {
	thermostat := &mockThermostat{}
	thermostat.queue(Reading{Status: StatusOff, HumidityPercent: 35}, nil)
	sink := &recordingSink{notify: make(chan struct{}, 1)}

	settings := testSettings()
	settings.PollingPeriod = 5 * time.Millisecond
	settings.MinSleep = time.Millisecond
	c := NewController(settings, &staticSource{}, thermostat, testCatalog())
	c.AddSink(sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-sink.notify:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for cycles")
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if c.Snapshot().Cycles < 3 {
		t.Errorf("Cycles = %d, want at least 3", c.Snapshot().Cycles)
	}
}

func TestController_SnapshotReportsDiscoveryHistory(t *testing.T) {
	dir := devicetest.NewDirectory(devicetest.NewSwitch("AA", "Space Heater"))
	registry := device.NewRegistry(dir, device.RegistryConfig{HistoryLength: 5})

	thermostat := &mockThermostat{}
	for i := 0; i < 2; i++ {
		thermostat.queue(Reading{AmbientCelsius: 20, HeatSetpointCelsius: 20, Status: StatusOff, HumidityPercent: 35}, nil)
	}

	c := NewController(testSettings(), registry, thermostat, testCatalog())
	ctx := context.Background()
	c.RunCycle(ctx)
	c.RunCycle(ctx)

	if got := c.Snapshot().DiscoveryResults; got != registry.HistoryLen() || got != 2 {
		t.Errorf("DiscoveryResults = %d, want 2 (registry holds %d)", got, registry.HistoryLen())
	}
}
