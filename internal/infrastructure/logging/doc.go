// Package logging provides structured logging for Gray Logic Climate.
//
// This package wraps Go's standard log/slog package so every component logs
// with the same handler, level and default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Temperatures
//
// The control loop works in Celsius. A logger created with
// WithTemperatureUnit("F") renders Temperature attributes in Fahrenheit
// along with a unit field, so logs match the unit the household reads.
//
// # Security
//
// Never log OAuth tokens, the hub access token or broker passwords.
package logging
