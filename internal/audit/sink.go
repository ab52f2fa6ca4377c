package audit

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-climate/internal/climate"
)

// recordTimeout bounds one cycle's insert so a locked database cannot stall
// the control loop.
const recordTimeout = 5 * time.Second

// Logger is the logging interface used by the audit sink.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Sink writes every cycle report to the audit trail. It implements climate.Sink.
type Sink struct {
	repo   Repository
	siteID string
	logger Logger
}

// NewSink creates an audit sink for siteID.
func NewSink(repo Repository, siteID string) *Sink {
	return &Sink{repo: repo, siteID: siteID, logger: noopLogger{}}
}

// SetLogger sets the logger for write failures.
func (s *Sink) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// RecordCycle stores the report. Failures are logged and dropped.
func (s *Sink) RecordCycle(ctx context.Context, report *climate.CycleReport) {
	cycle, actuations := FromReport(s.siteID, report)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.repo.RecordCycle(ctx, cycle, actuations); err != nil {
		s.logger.Warn("audit write failed", "cycle", report.Cycle, "error", err)
	}
}

// FromReport converts a cycle report to audit records.
func FromReport(siteID string, report *climate.CycleReport) (*Cycle, []Actuation) {
	cycle := &Cycle{
		SiteID:         siteID,
		Cycle:          report.Cycle,
		StartedAt:      report.StartedAt,
		DurationMS:     report.Duration.Milliseconds(),
		PreviousStatus: string(report.PreviousStatus),
		StatusChanged:  report.StatusChanged,
		SkipReason:     report.SkipReason,
		DiscoveryError: report.DiscoveryError,
		KnownSwitches:  report.KnownSwitches,
		Outcomes:       len(report.Outcomes),
		Failures:       report.Failures(),
	}
	if r := report.Reading; r != nil {
		cycle.Status = string(r.Status)
		cycle.AmbientCelsius = &r.AmbientCelsius
		cycle.SetpointCelsius = &r.HeatSetpointCelsius
		cycle.HumidityPercent = &r.HumidityPercent
	}

	actuations := make([]Actuation, 0, len(report.Outcomes))
	for _, o := range report.Outcomes {
		a := Actuation{
			OccurredAt: report.StartedAt,
			Action:     string(o.Action),
			Address:    o.Address,
			Name:       o.Name,
			Purpose:    string(o.Purpose),
			Detail:     o.Detail,
			GaveUp:     o.GaveUp,
			Attempt:    o.Attempt,
		}
		if o.Err != nil {
			a.Error = o.Err.Error()
		}
		actuations = append(actuations, a)
	}
	return cycle, actuations
}
