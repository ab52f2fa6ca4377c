package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the base of every topic the climate loop publishes.
const TopicPrefix = "graylogic/climate"

// Topics provides builders for climate MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.Event("turn_on")
//	// Returns: "graylogic/climate/event/turn_on"
type Topics struct{}

// State returns the retained topic carrying the latest cycle summary.
//
// Example: graylogic/climate/state
func (Topics) State() string {
	return TopicPrefix + "/state"
}

// Reading returns the retained topic carrying the latest thermostat reading.
//
// Example: graylogic/climate/reading
func (Topics) Reading() string {
	return TopicPrefix + "/reading"
}

// Event returns the topic for a single actuation outcome.
//
// Example: graylogic/climate/event/override
func (Topics) Event(action string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, action)
}

// SwitchState returns the retained per-switch ownership topic.
// Addresses are MACs or host:port strings, so separators that are
// meaningful to MQTT are replaced.
//
// Example: graylogic/climate/switch/94103e000001
func (Topics) SwitchState(address string) string {
	return fmt.Sprintf("%s/switch/%s", TopicPrefix, topicSafe(address))
}

// SystemStatus returns the online/offline status topic used for the LWT.
//
// Example: graylogic/climate/system/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// AllEvents returns a pattern matching every actuation event.
//
// Pattern: graylogic/climate/event/+
func (Topics) AllEvents() string {
	return TopicPrefix + "/event/+"
}

var topicReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_", ":", "_", " ", "_")

func topicSafe(s string) string {
	return strings.ToLower(topicReplacer.Replace(s))
}
