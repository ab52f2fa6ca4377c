package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validConfig returns the defaults plus the fields that have no default.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Thermostat.ProjectID = "project-1"
	cfg.Thermostat.ClientID = "client-1"
	cfg.Thermostat.RefreshToken = "refresh-1"
	return cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "test-site"
climate:
  temperature_unit: "F"
  polling_period: 90s
  aux_heat_threshold: 5.4
  humidity_target_percent: 40
devices:
  heating: ["Space Heater"]
  cooling: ["Box Fan", "Tower Fan"]
  aux_heating: ["Space Heater"]
  humidifier: ["Humidifier"]
thermostat:
  project_id: "project-abc"
  client_id: "client-abc"
  refresh_token: "token-abc"
fans:
  enabled: true
  hub:
    base_url: "http://hubitat.local"
    app_id: "12"
  devices:
    - id: "45"
      cooling_speed: "high"
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Climate.TemperatureUnit != UnitFahrenheit {
		t.Errorf("Climate.TemperatureUnit = %q, want %q", cfg.Climate.TemperatureUnit, UnitFahrenheit)
	}
	if cfg.Climate.PollingPeriod != 90*time.Second {
		t.Errorf("Climate.PollingPeriod = %v, want 90s", cfg.Climate.PollingPeriod)
	}
	if cfg.Climate.HumidityThresholdPercent != 5 {
		t.Errorf("Climate.HumidityThresholdPercent = %v, want default 5", cfg.Climate.HumidityThresholdPercent)
	}
	if len(cfg.Devices.Cooling) != 2 || cfg.Devices.Cooling[1] != "Tower Fan" {
		t.Errorf("Devices.Cooling = %v, want [Box Fan Tower Fan]", cfg.Devices.Cooling)
	}
	if len(cfg.Fans.Devices) != 1 || cfg.Fans.Devices[0].CoolingSpeed != "high" {
		t.Errorf("Fans.Devices = %+v, want one fan with cooling_speed high", cfg.Fans.Devices)
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.Discovery.HistoryLength != 10 {
		t.Errorf("Discovery.HistoryLength = %d, want default 10", cfg.Discovery.HistoryLength)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	content := `
climate:
  polling_period: "a minute"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected error for unparseable duration, got nil")
	}
}

func TestLoad_SecretsFromEnvironment(t *testing.T) {
	content := `
thermostat:
  project_id: "project-abc"
  client_id: "client-abc"
`
	t.Setenv("GRAYLOGIC_CLIMATE_THERMOSTAT_REFRESH_TOKEN", "from-env")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Thermostat.RefreshToken != "from-env" {
		t.Errorf("Thermostat.RefreshToken = %q, want %q", cfg.Thermostat.RefreshToken, "from-env")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
site:
  id: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing site ID", mutate: func(c *Config) { c.Site.ID = "" }, wantErr: true},
		{name: "unknown unit", mutate: func(c *Config) { c.Climate.TemperatureUnit = "K" }, wantErr: true},
		{name: "lowercase unit", mutate: func(c *Config) { c.Climate.TemperatureUnit = "f" }, wantErr: true},
		{name: "zero polling period", mutate: func(c *Config) { c.Climate.PollingPeriod = 0 }, wantErr: true},
		{name: "min sleep above period", mutate: func(c *Config) { c.Climate.MinSleep = 2 * time.Minute }, wantErr: true},
		{name: "negative aux threshold", mutate: func(c *Config) { c.Climate.AuxHeatThreshold = -1 }, wantErr: true},
		{name: "humidity target above 100", mutate: func(c *Config) { c.Climate.HumidityTargetPercent = 101 }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.Climate.MaxPowerOffRetries = -1 }, wantErr: true},
		{name: "zero retries allowed", mutate: func(c *Config) { c.Climate.MaxPowerOffRetries = 0 }},
		{name: "zero device timeout", mutate: func(c *Config) { c.Climate.DeviceTimeout = 0 }, wantErr: true},
		{name: "empty history", mutate: func(c *Config) { c.Discovery.HistoryLength = 0 }, wantErr: true},
		{name: "probability above 1", mutate: func(c *Config) { c.Discovery.RefreshProbability = 1.5 }, wantErr: true},
		{name: "missing project", mutate: func(c *Config) { c.Thermostat.ProjectID = "" }, wantErr: true},
		{name: "missing refresh token", mutate: func(c *Config) { c.Thermostat.RefreshToken = "" }, wantErr: true},
		{name: "fans enabled without hub", mutate: func(c *Config) { c.Fans.Enabled = true }, wantErr: true},
		{
			name: "fans enabled with hub",
			mutate: func(c *Config) {
				c.Fans.Enabled = true
				c.Fans.Hub.BaseURL = "http://hub"
				c.Fans.Hub.AppID = "1"
				c.Fans.Devices = []FanDeviceSpec{{ID: "9", CoolingSpeed: "medium"}}
			},
		},
		{
			name: "fan without id",
			mutate: func(c *Config) {
				c.Fans.Enabled = true
				c.Fans.Hub.BaseURL = "http://hub"
				c.Fans.Hub.AppID = "1"
				c.Fans.Devices = []FanDeviceSpec{{CoolingSpeed: "medium"}}
			},
			wantErr: true,
		},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{
			name:   "database disabled without path",
			mutate: func(c *Config) { c.Database.Enabled = false; c.Database.Path = "" },
		},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "api disabled ignores port", mutate: func(c *Config) { c.API.Enabled = false; c.API.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_ReportsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Site.ID = ""
	cfg.MQTT.QoS = 7

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() expected error, got nil")
	}
	for _, want := range []string{"site.id", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %q, want it to mention %q", err, want)
		}
	}
}

func TestConfig_AuxHeatThresholdCelsius(t *testing.T) {
	tests := []struct {
		unit      string
		threshold float64
		want      float64
	}{
		{UnitCelsius, 3, 3},
		{UnitFahrenheit, 5.4, 3},
		{UnitFahrenheit, 0, 0},
		{UnitFahrenheit, 9, 5},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.Climate.TemperatureUnit = tt.unit
		cfg.Climate.AuxHeatThreshold = tt.threshold
		if got := cfg.AuxHeatThresholdCelsius(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("AuxHeatThresholdCelsius(%v%s) = %v, want %v", tt.threshold, tt.unit, got, tt.want)
		}
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("GRAYLOGIC_CLIMATE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("GRAYLOGIC_CLIMATE_THERMOSTAT_CLIENT_ID", "client")
	t.Setenv("GRAYLOGIC_CLIMATE_THERMOSTAT_CLIENT_SECRET", "secret")
	t.Setenv("GRAYLOGIC_CLIMATE_THERMOSTAT_REFRESH_TOKEN", "refresh")
	t.Setenv("GRAYLOGIC_CLIMATE_HUB_ACCESS_TOKEN", "hub-token")
	t.Setenv("GRAYLOGIC_CLIMATE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("GRAYLOGIC_CLIMATE_MQTT_USERNAME", "testuser")
	t.Setenv("GRAYLOGIC_CLIMATE_MQTT_PASSWORD", "testpass")
	t.Setenv("GRAYLOGIC_CLIMATE_API_HOST", "192.168.1.1")
	t.Setenv("GRAYLOGIC_CLIMATE_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	checks := []struct {
		field string
		got   string
		want  string
	}{
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"Thermostat.ClientID", cfg.Thermostat.ClientID, "client"},
		{"Thermostat.ClientSecret", cfg.Thermostat.ClientSecret, "secret"},
		{"Thermostat.RefreshToken", cfg.Thermostat.RefreshToken, "refresh"},
		{"Fans.Hub.AccessToken", cfg.Fans.Hub.AccessToken, "hub-token"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Climate.PollingPeriod != 60*time.Second {
		t.Errorf("defaultConfig Climate.PollingPeriod = %v, want 60s", cfg.Climate.PollingPeriod)
	}
	if cfg.Climate.MaxPowerOffRetries != 5 {
		t.Errorf("defaultConfig Climate.MaxPowerOffRetries = %d, want 5", cfg.Climate.MaxPowerOffRetries)
	}
	if cfg.Discovery.RefreshProbability != 0.05 {
		t.Errorf("defaultConfig Discovery.RefreshProbability = %v, want 0.05", cfg.Discovery.RefreshProbability)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Enabled || cfg.InfluxDB.Enabled || cfg.Fans.Enabled {
		t.Error("defaultConfig should leave MQTT, InfluxDB and fans disabled")
	}
	if err := cfg.Validate(); err == nil {
		t.Error("defaultConfig should fail validation until thermostat credentials are set")
	}
}
