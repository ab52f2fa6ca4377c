package climate

import (
	"encoding/json"
	"time"

	"github.com/nerrad567/gray-logic-climate/internal/device"
)

// Action identifies what a recorded outcome did.
type Action string

// Outcome actions.
const (
	ActionTurnOn   Action = "turn_on"
	ActionTurnOff  Action = "turn_off"
	ActionQuery    Action = "query"
	ActionOverride Action = "override"
	ActionFanSpeed Action = "fan_speed"
	ActionFanOff   Action = "fan_off"
)

// Outcome is the result of one device interaction during a cycle.
type Outcome struct {
	Action  Action
	Address string
	Name    string
	Purpose Purpose

	// Detail carries action-specific context, such as a fan level.
	Detail string

	// Err is nil on success.
	Err error

	// GaveUp marks an off-command failure that exhausted the retry budget;
	// the switch was dropped from the ledger.
	GaveUp bool

	// Attempt is the consecutive failure count for off-commands.
	Attempt int
}

// OK reports whether the interaction succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

type outcomeJSON struct {
	Action  Action  `json:"action"`
	Address string  `json:"address"`
	Name    string  `json:"name,omitempty"`
	Purpose Purpose `json:"purpose,omitempty"`
	Detail  string  `json:"detail,omitempty"`
	Error   string  `json:"error,omitempty"`
	GaveUp  bool    `json:"gave_up,omitempty"`
	Attempt int     `json:"attempt,omitempty"`
}

// MarshalJSON renders Err as a string.
func (o Outcome) MarshalJSON() ([]byte, error) {
	out := outcomeJSON{
		Action:  o.Action,
		Address: o.Address,
		Name:    o.Name,
		Purpose: o.Purpose,
		Detail:  o.Detail,
		GaveUp:  o.GaveUp,
		Attempt: o.Attempt,
	}
	if o.Err != nil {
		out.Error = o.Err.Error()
	}
	return json.Marshal(out)
}

// CycleReport summarises one control cycle for sinks and the status API.
type CycleReport struct {
	Cycle     uint64        `json:"cycle"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	// Reading is nil when the thermostat could not be read.
	Reading *Reading `json:"reading,omitempty"`

	PreviousStatus Status `json:"previous_status,omitempty"`
	StatusChanged  bool   `json:"status_changed"`

	// SkipReason is set when the cycle made no decisions.
	SkipReason string `json:"skip_reason,omitempty"`

	// DiscoveryError is set when this cycle's discovery attempt failed.
	DiscoveryError string `json:"discovery_error,omitempty"`

	// Discovered reports whether discovery ran and succeeded this cycle.
	Discovered bool `json:"discovered"`

	KnownSwitches int       `json:"known_switches"`
	Outcomes      []Outcome `json:"outcomes"`

	State  ControlState              `json:"state"`
	Ledger map[Purpose][]device.Info `json:"ledger"`
}

// Skipped reports whether the cycle made no decisions.
func (r *CycleReport) Skipped() bool {
	return r.SkipReason != ""
}

// Failures counts outcomes with an error.
func (r *CycleReport) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Count returns the number of successful outcomes with action.
func (r *CycleReport) Count(action Action) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == action && o.Err == nil {
			n++
		}
	}
	return n
}
