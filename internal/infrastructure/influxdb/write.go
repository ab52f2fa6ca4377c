package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the climate loop.
const (
	MeasurementReading   = "climate_reading"
	MeasurementActuation = "climate_actuation"
	MeasurementCycle     = "climate_cycle"
)

// ReadingSample is one thermostat reading.
type ReadingSample struct {
	Site            string
	Thermostat      string
	Status          string
	AmbientCelsius  float64
	SetpointCelsius float64
	HumidityPercent float64
	Time            time.Time
}

// ActuationSample is one device interaction from a cycle.
type ActuationSample struct {
	Site    string
	Address string
	Name    string
	Action  string
	Purpose string
	OK      bool
	GaveUp  bool
	Attempt int
	Time    time.Time
}

// CycleSample summarises one control cycle.
type CycleSample struct {
	Site          string
	Skipped       bool
	StatusChanged bool
	Duration      time.Duration
	KnownSwitches int
	Outcomes      int
	Failures      int
	Heating       int
	Cooling       int
	Humidifying   int
	Time          time.Time
}

// WriteReading records a thermostat reading.
//
// Tags: site, thermostat, status. Fields: ambient_celsius, setpoint_celsius,
// humidity_percent, heat_deficit_celsius.
func (c *Client) WriteReading(s ReadingSample) {
	if !c.IsConnected() {
		c.dropped.Add(1)
		return
	}
	c.writeAPI.WritePoint(readingPoint(s))
}

// WriteActuation records a single switch or fan interaction.
func (c *Client) WriteActuation(s ActuationSample) {
	if !c.IsConnected() {
		c.dropped.Add(1)
		return
	}
	c.writeAPI.WritePoint(actuationPoint(s))
}

// WriteCycle records per-cycle counters.
func (c *Client) WriteCycle(s CycleSample) {
	if !c.IsConnected() {
		c.dropped.Add(1)
		return
	}
	c.writeAPI.WritePoint(cyclePoint(s))
}

func readingPoint(s ReadingSample) *write.Point {
	return write.NewPoint(
		MeasurementReading,
		map[string]string{
			"site":       s.Site,
			"thermostat": s.Thermostat,
			"status":     s.Status,
		},
		map[string]interface{}{
			"ambient_celsius":      s.AmbientCelsius,
			"setpoint_celsius":     s.SetpointCelsius,
			"humidity_percent":     s.HumidityPercent,
			"heat_deficit_celsius": s.SetpointCelsius - s.AmbientCelsius,
		},
		stamp(s.Time),
	)
}

func actuationPoint(s ActuationSample) *write.Point {
	tags := map[string]string{
		"site":    s.Site,
		"address": s.Address,
		"action":  s.Action,
	}
	// Fan actions have no purpose; empty tags are not valid line protocol.
	if s.Purpose != "" {
		tags["purpose"] = s.Purpose
	}

	fields := map[string]interface{}{
		"ok":      s.OK,
		"gave_up": s.GaveUp,
		"attempt": int64(s.Attempt),
	}
	if s.Name != "" {
		fields["name"] = s.Name
	}

	return write.NewPoint(MeasurementActuation, tags, fields, stamp(s.Time))
}

func cyclePoint(s CycleSample) *write.Point {
	return write.NewPoint(
		MeasurementCycle,
		map[string]string{
			"site": s.Site,
		},
		map[string]interface{}{
			"skipped":        s.Skipped,
			"status_changed": s.StatusChanged,
			"duration_ms":    s.Duration.Milliseconds(),
			"known_switches": int64(s.KnownSwitches),
			"outcomes":       int64(s.Outcomes),
			"failures":       int64(s.Failures),
			"heating":        int64(s.Heating),
			"cooling":        int64(s.Cooling),
			"humidifying":    int64(s.Humidifying),
		},
		stamp(s.Time),
	)
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
