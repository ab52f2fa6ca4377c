// Package api implements the read-only HTTP status API and WebSocket feed
// for Gray Logic Climate.
//
// This package provides:
//   - GET /api/v1/health for liveness probes
//   - GET /api/v1/status with the ledger, control flags, last reading and known switches
//   - GET /api/v1/events for the actuation audit trail
//   - GET /api/v1/metrics for runtime and connection statistics
//   - GET /api/v1/ws for live cycle and actuation events
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API never drives devices. It reads the controller's published status
// snapshot, which is copied under the controller's lock at the end of each
// cycle, and the audit repository. Live events arrive through the Hub, which
// the telemetry package feeds from the controller's report sinks.
//
// # WebSocket protocol
//
// Clients subscribe to channels after connecting:
//
//	{"type":"subscribe","id":"1","payload":{"channels":["climate.cycle"]}}
//
// Events are delivered as {"type":"event","event_type":"climate.cycle",...}.
//
// # Graceful Degradation
//
// The server runs without the audit database (events returns 503) and
// without MQTT (metrics reports it disconnected).
package api
