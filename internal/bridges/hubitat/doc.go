// Package hubitat drives fans paired with a Hubitat Elevation hub through
// the Maker API app.
//
// Commands are plain GET requests against the hub's local API:
//
//	GET /apps/api/{appID}/devices/{fanID}/setSpeed/{level}?access_token=...
//	GET /apps/api/{appID}/devices/{fanID}/off?access_token=...
//
// Valid speed levels depend on the fan driver; the Hubitat fan capability
// uses low, medium-low, medium, medium-high, high, on, off and auto.
package hubitat
