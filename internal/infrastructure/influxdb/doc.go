// Package influxdb writes climate telemetry to InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, non-blocking batched writes and health monitoring.
//
// # Measurements
//
//   - climate_reading: ambient temperature, heating setpoint, humidity and
//     heat deficit, tagged by thermostat and HVAC status
//   - climate_actuation: one point per switch or fan interaction, tagged by
//     address, action and purpose
//   - climate_cycle: per-cycle counters (outcomes, failures, ledger sizes)
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteReading(influxdb.ReadingSample{Thermostat: "Hallway", AmbientCelsius: 19.5})
//
// # Error Handling
//
// Writes are non-blocking; batch errors are delivered to the SetOnError
// callback. Connection and health check errors are returned directly.
package influxdb
