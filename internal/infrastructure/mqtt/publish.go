package mqtt

import "fmt"

// maxPayloadSize caps a single message at 1MB.
const maxPayloadSize = 1 << 20

// Publish sends one message and waits for the broker acknowledgement
// (QoS 1 and 2) or the publish timeout.
//
// An empty payload is only accepted with retained=true, where it tells the
// broker to forget the topic's retained message. The climate sink uses this
// to clear switch ownership when automation releases a switch.
//
// Parameters:
//   - topic: Built with Topics, e.g. Topics{}.Event("turn_on")
//   - payload: JSON body
//   - qos: 0, 1 or 2
//   - retained: true for state topics, false for events
//
// Returns:
//   - error: ErrInvalidMessage, ErrNotConnected or wrapped ErrPublishFailed
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := validate(topic, payload, qos, retained); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: %s: no ack after %v", ErrPublishFailed, topic, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

func validate(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return fmt.Errorf("%w: empty topic", ErrInvalidMessage)
	case qos > maxQoS:
		return fmt.Errorf("%w: qos %d", ErrInvalidMessage, qos)
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrInvalidMessage, len(payload), maxPayloadSize)
	case len(payload) == 0 && !retained:
		return fmt.Errorf("%w: empty payload on %s is only meaningful when retained", ErrInvalidMessage, topic)
	}
	return nil
}
