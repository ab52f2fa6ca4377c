package telemetry

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/nerrad567/gray-logic-climate/internal/climate"
	"github.com/nerrad567/gray-logic-climate/internal/infrastructure/mqtt"
)

// Publisher is the subset of *mqtt.Client the sink needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTTSink publishes cycle reports to the broker.
//
// RecordCycle is called from the control goroutine only.
type MQTTSink struct {
	pub    Publisher
	site   string
	qos    byte
	topics mqtt.Topics
	logger Logger

	// owned holds the addresses with a retained ownership message, so a
	// released switch gets its message cleared.
	owned map[string]bool
}

// NewMQTTSink creates a sink publishing at qos.
func NewMQTTSink(pub Publisher, site string, qos byte) *MQTTSink {
	return &MQTTSink{
		pub:    pub,
		site:   site,
		qos:    qos,
		logger: noopLogger{},
		owned:  make(map[string]bool),
	}
}

// SetLogger sets the logger for publish failures.
func (s *MQTTSink) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.logger = logger
}

// RecordCycle implements climate.Sink.
func (s *MQTTSink) RecordCycle(_ context.Context, r *climate.CycleReport) {
	if r == nil {
		return
	}

	for _, o := range r.Outcomes {
		s.publish(s.topics.Event(string(o.Action)), outcomeEvent{
			Site:      s.site,
			Cycle:     r.Cycle,
			Timestamp: r.StartedAt.UTC(),
			Outcome:   o,
		}, false)
	}

	if r.Reading != nil {
		s.publish(s.topics.Reading(), r.Reading, true)
	}

	s.publishOwnership(r)
	s.publish(s.topics.State(), summarise(s.site, r), true)
}

func (s *MQTTSink) publishOwnership(r *climate.CycleReport) {
	current := ownership(r)

	addresses := make([]string, 0, len(current))
	for addr := range current {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)
	for _, addr := range addresses {
		s.publish(s.topics.SwitchState(addr), current[addr], true)
		s.owned[addr] = true
	}

	for addr := range s.owned {
		if _, ok := current[addr]; ok {
			continue
		}
		// An empty retained payload removes the retained message.
		if err := s.pub.Publish(s.topics.SwitchState(addr), nil, s.qos, true); err != nil {
			s.logger.Warn("clearing switch ownership failed", "address", addr, "error", err)
			continue
		}
		delete(s.owned, addr)
	}
}

func (s *MQTTSink) publish(topic string, v any, retained bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("encoding telemetry failed", "topic", topic, "error", err)
		return
	}
	if err := s.pub.Publish(topic, payload, s.qos, retained); err != nil {
		s.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
		return
	}
	s.logger.Debug("telemetry published", "topic", topic, "bytes", len(payload))
}
