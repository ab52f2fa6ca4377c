package telemetry

import (
	"context"

	"github.com/nerrad567/gray-logic-climate/internal/climate"
)

// WebSocket channels broadcast by HubSink.
const (
	ChannelCycle     = "climate.cycle"
	ChannelActuation = "climate.actuation"
)

// Broadcaster is the WebSocket hub interface.
type Broadcaster interface {
	// Broadcast sends an event to all clients subscribed to the given channel.
	Broadcast(channel string, payload any)
}

// HubSink pushes cycle summaries and outcomes to live WebSocket clients.
type HubSink struct {
	hub  Broadcaster
	site string
}

// NewHubSink creates a sink broadcasting on the climate channels.
func NewHubSink(hub Broadcaster, site string) *HubSink {
	return &HubSink{hub: hub, site: site}
}

// RecordCycle implements climate.Sink.
func (s *HubSink) RecordCycle(_ context.Context, r *climate.CycleReport) {
	if r == nil {
		return
	}
	for _, o := range r.Outcomes {
		s.hub.Broadcast(ChannelActuation, outcomeEvent{
			Site:      s.site,
			Cycle:     r.Cycle,
			Timestamp: r.StartedAt.UTC(),
			Outcome:   o,
		})
	}
	s.hub.Broadcast(ChannelCycle, summarise(s.site, r))
}
