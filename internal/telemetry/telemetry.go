package telemetry

import (
	"time"

	"github.com/nerrad567/gray-logic-climate/internal/climate"
)

// Logger defines the logging interface used by the sinks.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// outcomeEvent is the payload of a per-outcome message.
type outcomeEvent struct {
	Site      string          `json:"site"`
	Cycle     uint64          `json:"cycle"`
	Timestamp time.Time       `json:"timestamp"`
	Outcome   climate.Outcome `json:"outcome"`
}

// cycleSummary is the compact per-cycle payload shared by MQTT and WebSocket.
type cycleSummary struct {
	Site           string                  `json:"site"`
	Cycle          uint64                  `json:"cycle"`
	StartedAt      time.Time               `json:"started_at"`
	DurationMS     int64                   `json:"duration_ms"`
	Status         climate.Status          `json:"status,omitempty"`
	PreviousStatus climate.Status          `json:"previous_status,omitempty"`
	StatusChanged  bool                    `json:"status_changed"`
	SkipReason     string                  `json:"skip_reason,omitempty"`
	DiscoveryError string                  `json:"discovery_error,omitempty"`
	KnownSwitches  int                     `json:"known_switches"`
	Outcomes       int                     `json:"outcomes"`
	Failures       int                     `json:"failures"`
	Reading        *climate.Reading        `json:"reading,omitempty"`
	State          climate.ControlState    `json:"state"`
	Ledger         map[climate.Purpose]int `json:"ledger"`
}

func summarise(site string, r *climate.CycleReport) cycleSummary {
	s := cycleSummary{
		Site:           site,
		Cycle:          r.Cycle,
		StartedAt:      r.StartedAt.UTC(),
		DurationMS:     r.Duration.Milliseconds(),
		PreviousStatus: r.PreviousStatus,
		StatusChanged:  r.StatusChanged,
		SkipReason:     r.SkipReason,
		DiscoveryError: r.DiscoveryError,
		KnownSwitches:  r.KnownSwitches,
		Outcomes:       len(r.Outcomes),
		Failures:       r.Failures(),
		Reading:        r.Reading,
		State:          r.State,
		Ledger:         make(map[climate.Purpose]int, len(climate.Purposes)),
	}
	if r.Reading != nil {
		s.Status = r.Reading.Status
	}
	for _, p := range climate.Purposes {
		s.Ledger[p] = len(r.Ledger[p])
	}
	return s
}

// ownership maps each ledger address to its purposes, in fixed purpose order.
func ownership(r *climate.CycleReport) map[string]switchOwnership {
	out := make(map[string]switchOwnership)
	for _, p := range climate.Purposes {
		for _, info := range r.Ledger[p] {
			o := out[info.Address]
			o.Address = info.Address
			o.Name = info.Name
			o.Purposes = append(o.Purposes, p)
			out[info.Address] = o
		}
	}
	return out
}

type switchOwnership struct {
	Address  string            `json:"address"`
	Name     string            `json:"name"`
	Purposes []climate.Purpose `json:"purposes"`
}
