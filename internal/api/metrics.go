package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Runtime       RuntimeMetrics    `json:"runtime"`
	WebSocket     WSMetrics         `json:"websocket"`
	MQTT          MQTTMetrics       `json:"mqtt"`
	Thermostat    ThermostatMetrics `json:"thermostat"`
	Controller    ControllerMetrics `json:"controller"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int    `json:"connected_clients"`
	DroppedMessages  uint64 `json:"dropped_messages"`
}

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Enabled    bool   `json:"enabled"`
	Connected  bool   `json:"connected"`
	Reconnects uint64 `json:"reconnects"`
}

// ThermostatMetrics contains thermostat API client statistics.
type ThermostatMetrics struct {
	Breaker string `json:"breaker,omitempty"`
}

// ControllerMetrics contains control loop counters.
type ControllerMetrics struct {
	Cycles           uint64         `json:"cycles"`
	KnownSwitches    int            `json:"known_switches"`
	DiscoveryResults int            `json:"discovery_results"`
	Ledger           map[string]int `json:"ledger"`
	Retrying         int            `json:"retrying"`
}

// handleMetrics returns runtime, connection and control loop metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	st := s.controller.Snapshot()

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Controller: ControllerMetrics{
			Cycles:           st.Cycles,
			KnownSwitches:    len(st.KnownSwitches),
			DiscoveryResults: st.DiscoveryResults,
			Ledger:           make(map[string]int, len(st.Ledger)),
			Retrying:         len(st.RetryCounts),
		},
	}
	for p, members := range st.Ledger {
		metrics.Controller.Ledger[string(p)] = len(members)
	}

	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
		metrics.WebSocket.DroppedMessages = s.hub.Dropped()
	}
	if s.mqtt != nil {
		metrics.MQTT = MQTTMetrics{Enabled: true, Connected: s.mqtt.IsConnected()}
		if rc, ok := s.mqtt.(interface{ Reconnects() uint64 }); ok {
			metrics.MQTT.Reconnects = rc.Reconnects()
		}
	}
	if s.thermostat != nil {
		metrics.Thermostat.Breaker = s.thermostat.BreakerState()
	}

	writeJSON(w, http.StatusOK, metrics)
}
