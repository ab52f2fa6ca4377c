// Package mqtt publishes climate loop state to an MQTT broker.
//
// The loop only publishes. Other home automation (dashboards, rules engines)
// subscribes to the retained state topics and to the event stream:
//
//	graylogic/climate/state             retained cycle summary
//	graylogic/climate/reading           retained thermostat reading
//	graylogic/climate/switch/{address}  retained switch ownership
//	graylogic/climate/event/{action}    one message per actuation
//	graylogic/climate/system/status     online/offline (LWT)
//
// # Security Considerations
//
//   - TLS should be enabled when the broker is not on localhost (cfg.Broker.TLS=true)
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.Publish(mqtt.Topics{}.State(), payload, 1, true)
//
// An empty retained payload clears a topic; the broker drops its retained
// message and new subscribers see nothing.
package mqtt
