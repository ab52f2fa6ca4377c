package influxdb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-climate/internal/infrastructure/config"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "graylogic-dev-token",
		Org:           "graylogic",
		Bucket:        "climate",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectOrSkip connects to the local dev InfluxDB, skipping when it is not running.
func connectOrSkip(t *testing.T) *Client {
	t.Helper()
	client, err := Connect(context.Background(), testConfig())
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func lineProtocol(p *write.Point) string {
	return write.PointToLineProtocol(p, time.Second)
}

var sampleTime = time.Date(2026, 1, 15, 7, 30, 0, 0, time.UTC)

// =============================================================================
// Point Tests
// =============================================================================

func TestReadingPoint(t *testing.T) {
	got := lineProtocol(readingPoint(ReadingSample{
		Site:            "home",
		Thermostat:      "Hallway",
		Status:          "HEATING",
		AmbientCelsius:  18,
		SetpointCelsius: 22,
		HumidityPercent: 28,
		Time:            sampleTime,
	}))

	for _, want := range []string{
		"climate_reading,site=home,status=HEATING,thermostat=Hallway ",
		"ambient_celsius=18",
		"setpoint_celsius=22",
		"humidity_percent=28",
		"heat_deficit_celsius=4",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("line protocol %q missing %q", got, want)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(got), " 1768462200") {
		t.Errorf("line protocol %q has wrong timestamp", got)
	}
}

func TestActuationPoint(t *testing.T) {
	tests := []struct {
		name    string
		sample  ActuationSample
		want    []string
		notWant []string
	}{
		{
			name: "switch turn off gave up",
			sample: ActuationSample{
				Site: "home", Address: "94103E000001", Name: "Space Heater",
				Action: "turn_off", Purpose: "heating", GaveUp: true, Attempt: 6, Time: sampleTime,
			},
			want: []string{
				"climate_actuation,action=turn_off,address=94103E000001,purpose=heating,site=home ",
				"ok=false", "gave_up=true", "attempt=6i", `name="Space Heater"`,
			},
		},
		{
			name: "fan speed has no purpose",
			sample: ActuationSample{
				Site: "home", Address: "45", Action: "fan_speed", OK: true, Time: sampleTime,
			},
			want:    []string{"climate_actuation,action=fan_speed,address=45,site=home ", "ok=true"},
			notWant: []string{"purpose=", "name="},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lineProtocol(actuationPoint(tt.sample))
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("line protocol %q missing %q", got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("line protocol %q should not contain %q", got, w)
				}
			}
		})
	}
}

func TestCyclePoint(t *testing.T) {
	got := lineProtocol(cyclePoint(CycleSample{
		Site:          "home",
		StatusChanged: true,
		Duration:      1500 * time.Millisecond,
		KnownSwitches: 4,
		Outcomes:      3,
		Failures:      1,
		Heating:       2,
		Time:          sampleTime,
	}))

	for _, want := range []string{
		"climate_cycle,site=home ",
		"skipped=false", "status_changed=true", "duration_ms=1500i",
		"known_switches=4i", "outcomes=3i", "failures=1i", "heating=2i", "cooling=0i",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("line protocol %q missing %q", got, want)
		}
	}
}

func TestStamp(t *testing.T) {
	if got := stamp(sampleTime); !got.Equal(sampleTime) {
		t.Errorf("stamp(t) = %v, want %v", got, sampleTime)
	}
	before := time.Now()
	if got := stamp(time.Time{}); got.Before(before) {
		t.Errorf("stamp(zero) = %v, want now", got)
	}
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := Connect(context.Background(), cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	_, err := Connect(context.Background(), cfg)
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("Connect() error = %v, want ErrUnreachable", err)
	}
}

func TestClient_NotConnected(t *testing.T) {
	c := &Client{}

	// Writes on a disconnected client are dropped, not panics.
	c.WriteReading(ReadingSample{Thermostat: "Hallway"})
	c.WriteActuation(ActuationSample{Address: "AA"})
	c.WriteCycle(CycleSample{})
	c.Flush()

	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("HealthCheck() error = %v, want ErrClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if got := c.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

func TestClient_Live(t *testing.T) {
	client := connectOrSkip(t)

	var writeErr error
	errCh := make(chan struct{}, 1)
	client.SetOnError(func(err error) {
		writeErr = err
		select {
		case errCh <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}

	client.WriteReading(ReadingSample{Site: "test", Thermostat: "Hallway", Status: "OFF", AmbientCelsius: 20})
	client.WriteActuation(ActuationSample{Site: "test", Address: "AA", Action: "turn_on", Purpose: "heating", OK: true})
	client.WriteCycle(CycleSample{Site: "test", Outcomes: 1})
	client.Flush()
	if client.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0 while open", client.Dropped())
	}

	select {
	case <-errCh:
		t.Errorf("write error = %v", writeErr)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFlushIntervalMillis(t *testing.T) {
	tests := []struct {
		seconds int
		want    uint
	}{
		{0, 10000},
		{-5, 10000},
		{1, 1000},
		{30, 30000},
	}
	for _, tt := range tests {
		if got := flushIntervalMillis(tt.seconds); got != tt.want {
			t.Errorf("flushIntervalMillis(%d) = %d, want %d", tt.seconds, got, tt.want)
		}
	}
	if got := batchSize(0); got != defaultBatchSize {
		t.Errorf("batchSize(0) = %d, want %d", got, defaultBatchSize)
	}
}
