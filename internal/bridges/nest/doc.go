// Package nest reads a Nest thermostat through the Google Smart Device
// Management (SDM) API.
//
// The client lists the devices of an SDM project, picks a thermostat, and
// caches its resource name. When a read of the cached device fails the
// name is dropped and the next read lists devices again, so a replaced
// thermostat is picked up without a restart.
//
// Requests are authorised with an OAuth2 refresh token (golang.org/x/oauth2)
// and pass through a circuit breaker (github.com/sony/gobreaker) so an SDM
// outage fails fast instead of stalling every cycle for the full timeout.
package nest
