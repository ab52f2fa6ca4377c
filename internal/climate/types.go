package climate

import (
	"context"
	"time"
)

// Status is the HVAC operating status reported by the thermostat.
type Status string

// Known HVAC statuses. Anything else is logged as unexpected and ignored.
const (
	StatusHeating Status = "HEATING"
	StatusCooling Status = "COOLING"
	StatusOff     Status = "OFF"
)

// Known reports whether s is one of the statuses the policy acts on.
func (s Status) Known() bool {
	switch s {
	case StatusHeating, StatusCooling, StatusOff:
		return true
	default:
		return false
	}
}

// Purpose names the reason automation turned a switch on.
type Purpose string

// Ledger purposes. Heating and cooling are mutually exclusive per switch.
const (
	PurposeHeating     Purpose = "heating"
	PurposeCooling     Purpose = "cooling"
	PurposeHumidifying Purpose = "humidifying"
)

// Purposes lists every ledger purpose in a fixed order.
var Purposes = []Purpose{PurposeHeating, PurposeCooling, PurposeHumidifying}

// opposite returns the purpose that cannot be held at the same time as p.
func (p Purpose) opposite() (Purpose, bool) {
	switch p {
	case PurposeHeating:
		return PurposeCooling, true
	case PurposeCooling:
		return PurposeHeating, true
	default:
		return "", false
	}
}

// Reading is one thermostat sample. Temperatures are always Celsius.
type Reading struct {
	AmbientCelsius      float64   `json:"ambient_celsius"`
	HeatSetpointCelsius float64   `json:"heat_setpoint_celsius"`
	Status              Status    `json:"status"`
	HumidityPercent     float64   `json:"humidity_percent"`
	Thermostat          string    `json:"thermostat"`
	ReadAt              time.Time `json:"read_at"`
}

// HeatDeficit is how far the room is below the heating setpoint.
func (r Reading) HeatDeficit() float64 {
	return r.HeatSetpointCelsius - r.AmbientCelsius
}

// Thermostat supplies the current climate reading.
type Thermostat interface {
	CurrentReading(ctx context.Context) (Reading, error)
}

// FanController drives fans behind a local hub.
type FanController interface {
	SetSpeed(ctx context.Context, fanID, level string) error
	TurnOff(ctx context.Context, fanID string) error
}

// FanBinding maps one hub fan to a speed per HVAC status.
// A status with no speed (or an empty one) turns the fan off.
type FanBinding struct {
	ID     string
	Speeds map[Status]string
}

// Sink receives a report after every cycle. Implementations handle their own
// failures; nothing a sink does affects control decisions.
type Sink interface {
	RecordCycle(ctx context.Context, report *CycleReport)
}

// ControlState is the cross-cycle memory of the policy engine.
type ControlState struct {
	// PreviousStatus is the HVAC status of the last cycle that made decisions.
	// Empty before the first such cycle, so the first reading always counts
	// as a status change.
	PreviousStatus Status `json:"previous_status"`

	// AuxHeatEngaged is set once aux heaters were started for the current
	// HEATING episode and cleared on any status change.
	AuxHeatEngaged bool `json:"aux_heat_engaged"`

	// HumidifiersEngaged is set once humidifiers were started for the current
	// dry spell and cleared when humidity rises above the band.
	HumidifiersEngaged bool `json:"humidifiers_engaged"`

	// FirstCycle is true until the first cycle that made decisions. On that
	// cycle aux heaters and humidifiers are claimed even if already on, so
	// devices left running by a previous process come back under control.
	FirstCycle bool `json:"first_cycle"`
}

// NewControlState returns the state for a freshly started process.
func NewControlState() ControlState {
	return ControlState{FirstCycle: true}
}

// Logger defines the logging interface used by the climate package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// temperatureLogger is implemented by loggers that render temperatures in a
// display unit (see logging.Logger.Temperature).
type temperatureLogger interface {
	Temperature(key string, celsius float64) []any
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// temperatureArgs renders a Celsius value through logger if it supports
// display units.
func temperatureArgs(logger Logger, key string, celsius float64) []any {
	if tl, ok := logger.(temperatureLogger); ok {
		return tl.Temperature(key, celsius)
	}
	return []any{key, celsius, "unit", "C"}
}
