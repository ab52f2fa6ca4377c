// Package telemetry exports climate cycle reports to observers.
//
// Each sink implements climate.Sink and maps a CycleReport onto one
// transport:
//
//   - MQTTSink publishes a retained summary on graylogic/climate/state, the
//     retained reading, one event per device outcome and a retained
//     ownership message per switch held by automation.
//   - InfluxSink writes climate_reading, climate_actuation and climate_cycle
//     points.
//   - HubSink broadcasts cycle and actuation events to WebSocket clients.
//
// Sinks never return errors to the controller. Publish failures are logged
// and the report is dropped for that transport.
package telemetry
