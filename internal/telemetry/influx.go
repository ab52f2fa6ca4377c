package telemetry

import (
	"context"

	"github.com/nerrad567/gray-logic-climate/internal/climate"
	"github.com/nerrad567/gray-logic-climate/internal/infrastructure/influxdb"
)

// PointWriter is the subset of *influxdb.Client the sink needs.
type PointWriter interface {
	WriteReading(s influxdb.ReadingSample)
	WriteActuation(s influxdb.ActuationSample)
	WriteCycle(s influxdb.CycleSample)
}

// InfluxSink writes cycle reports as time-series points. Writes are
// batched by the client; errors surface through its error callback.
type InfluxSink struct {
	w    PointWriter
	site string
}

// NewInfluxSink creates a sink tagging every point with site.
func NewInfluxSink(w PointWriter, site string) *InfluxSink {
	return &InfluxSink{w: w, site: site}
}

// RecordCycle implements climate.Sink.
func (s *InfluxSink) RecordCycle(_ context.Context, r *climate.CycleReport) {
	if r == nil {
		return
	}

	if r.Reading != nil {
		s.w.WriteReading(influxdb.ReadingSample{
			Site:            s.site,
			Thermostat:      r.Reading.Thermostat,
			Status:          string(r.Reading.Status),
			AmbientCelsius:  r.Reading.AmbientCelsius,
			SetpointCelsius: r.Reading.HeatSetpointCelsius,
			HumidityPercent: r.Reading.HumidityPercent,
			Time:            r.Reading.ReadAt,
		})
	}

	for _, o := range r.Outcomes {
		s.w.WriteActuation(influxdb.ActuationSample{
			Site:    s.site,
			Address: o.Address,
			Name:    o.Name,
			Action:  string(o.Action),
			Purpose: string(o.Purpose),
			OK:      o.OK(),
			GaveUp:  o.GaveUp,
			Attempt: o.Attempt,
			Time:    r.StartedAt,
		})
	}

	s.w.WriteCycle(influxdb.CycleSample{
		Site:          s.site,
		Skipped:       r.Skipped(),
		StatusChanged: r.StatusChanged,
		Duration:      r.Duration,
		KnownSwitches: r.KnownSwitches,
		Outcomes:      len(r.Outcomes),
		Failures:      r.Failures(),
		Heating:       len(r.Ledger[climate.PurposeHeating]),
		Cooling:       len(r.Ledger[climate.PurposeCooling]),
		Humidifying:   len(r.Ledger[climate.PurposeHumidifying]),
		Time:          r.StartedAt,
	})
}
