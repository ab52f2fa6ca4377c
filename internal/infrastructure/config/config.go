package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Temperature units accepted by climate.temperature_unit.
const (
	UnitCelsius    = "C"
	UnitFahrenheit = "F"
)

// Config is the root configuration structure for Gray Logic Climate.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Climate    ClimateConfig    `yaml:"climate"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Devices    DevicesConfig    `yaml:"devices"`
	Thermostat ThermostatConfig `yaml:"thermostat"`
	Fans       FansConfig       `yaml:"fans"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ClimateConfig contains the control loop settings.
type ClimateConfig struct {
	// TemperatureUnit is the display unit for logs and for AuxHeatThreshold: "C" or "F".
	TemperatureUnit string `yaml:"temperature_unit"`

	// PollingPeriod is the nominal length of one control cycle.
	PollingPeriod time.Duration `yaml:"polling_period"`

	// MinSleep is the floor applied when a cycle overruns the polling period.
	MinSleep time.Duration `yaml:"min_sleep"`

	// AuxHeatThreshold is the setpoint deficit (in TemperatureUnit degrees)
	// above which auxiliary heaters are engaged while heating.
	AuxHeatThreshold float64 `yaml:"aux_heat_threshold"`

	// HumidityTargetPercent is the desired indoor relative humidity.
	HumidityTargetPercent float64 `yaml:"humidity_target_percent"`

	// HumidityThresholdPercent is the dead band around the target.
	HumidityThresholdPercent float64 `yaml:"humidity_threshold_percent"`

	// MaxPowerOffRetries is how many consecutive failed off-commands are
	// tolerated before a switch is dropped from automatic control.
	MaxPowerOffRetries int `yaml:"max_power_off_retries"`

	// DeviceTimeout bounds every individual switch call.
	DeviceTimeout time.Duration `yaml:"device_timeout"`
}

// DiscoveryConfig contains switch discovery settings.
type DiscoveryConfig struct {
	// HistoryLength is how many discovery results are merged.
	HistoryLength int `yaml:"history_length"`

	// RefreshProbability is the chance of rediscovering once the history is full.
	RefreshProbability float64 `yaml:"refresh_probability"`

	// Wait is how long an SSDP search listens for responses.
	Wait time.Duration `yaml:"wait"`

	// LocalAddr optionally binds the SSDP search to one interface ("192.168.1.10:0").
	LocalAddr string `yaml:"local_addr,omitempty"`
}

// DevicesConfig lists switch names per category. Matching is exact and case-sensitive.
type DevicesConfig struct {
	Heating    []string `yaml:"heating"`
	Cooling    []string `yaml:"cooling"`
	AuxHeating []string `yaml:"aux_heating"`
	Humidifier []string `yaml:"humidifier"`
}

// ThermostatConfig contains the Smart Device Management API settings.
type ThermostatConfig struct {
	// ProjectID is the SDM enterprise (device access project) id.
	ProjectID string `yaml:"project_id"`

	// DeviceName pins a specific thermostat ("enterprises/.../devices/...").
	// When empty the first thermostat in the project is used.
	DeviceName string `yaml:"device_name,omitempty"`

	BaseURL      string        `yaml:"base_url"`
	TokenURL     string        `yaml:"token_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	RefreshToken string        `yaml:"refresh_token"`
	Timeout      time.Duration `yaml:"timeout"`

	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig contains circuit breaker settings for the thermostat API.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures int `yaml:"max_failures"`

	// OpenTimeout is how long the breaker stays open before a probe request.
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// FansConfig contains the optional fan hub settings.
type FansConfig struct {
	Enabled bool            `yaml:"enabled"`
	Hub     HubConfig       `yaml:"hub"`
	Devices []FanDeviceSpec `yaml:"devices"`
}

// HubConfig contains Hubitat Maker API connection details.
type HubConfig struct {
	BaseURL     string        `yaml:"base_url"`
	AppID       string        `yaml:"app_id"`
	AccessToken string        `yaml:"access_token"`
	Timeout     time.Duration `yaml:"timeout"`
}

// FanDeviceSpec maps one hub fan to the speed it runs at per HVAC status.
// An empty speed turns the fan off for that status.
type FanDeviceSpec struct {
	ID           string `yaml:"id"`
	HeatingSpeed string `yaml:"heating_speed"`
	CoolingSpeed string `yaml:"cooling_speed"`
	IdleSpeed    string `yaml:"idle_speed"`
}

// DatabaseConfig contains SQLite database settings for the actuation audit trail.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP status API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// CORSConfig lists the browser origins allowed to call the API.
// An empty list allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	MaxMessageSize int `yaml:"max_message_size"`
	PingInterval   int `yaml:"ping_interval"`
	PongTimeout    int `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYLOGIC_CLIMATE_SECTION_KEY
// For example: GRAYLOGIC_CLIMATE_THERMOSTAT_REFRESH_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "home",
			Name: "Gray Logic Climate",
		},
		Climate: ClimateConfig{
			TemperatureUnit:          UnitCelsius,
			PollingPeriod:            60 * time.Second,
			MinSleep:                 10 * time.Second,
			AuxHeatThreshold:         3,
			HumidityTargetPercent:    35,
			HumidityThresholdPercent: 5,
			MaxPowerOffRetries:       5,
			DeviceTimeout:            10 * time.Second,
		},
		Discovery: DiscoveryConfig{
			HistoryLength:      10,
			RefreshProbability: 0.05,
			Wait:               3 * time.Second,
		},
		Thermostat: ThermostatConfig{
			BaseURL:  "https://smartdevicemanagement.googleapis.com/v1",
			TokenURL: "https://oauth2.googleapis.com/token",
			Timeout:  15 * time.Second,
			Breaker: BreakerConfig{
				MaxFailures: 5,
				OpenTimeout: 2 * time.Minute,
			},
		},
		Fans: FansConfig{
			Hub: HubConfig{
				Timeout: 5 * time.Second,
			},
		},
		Database: DatabaseConfig{
			Enabled:     true,
			Path:        "./data/climate.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-climate",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Secrets should always arrive this way rather than through the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYLOGIC_CLIMATE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Thermostat OAuth
	if v := os.Getenv("GRAYLOGIC_CLIMATE_THERMOSTAT_CLIENT_ID"); v != "" {
		cfg.Thermostat.ClientID = v
	}
	if v := os.Getenv("GRAYLOGIC_CLIMATE_THERMOSTAT_CLIENT_SECRET"); v != "" {
		cfg.Thermostat.ClientSecret = v
	}
	if v := os.Getenv("GRAYLOGIC_CLIMATE_THERMOSTAT_REFRESH_TOKEN"); v != "" {
		cfg.Thermostat.RefreshToken = v
	}

	// Fan hub
	if v := os.Getenv("GRAYLOGIC_CLIMATE_HUB_ACCESS_TOKEN"); v != "" {
		cfg.Fans.Hub.AccessToken = v
	}

	// MQTT
	if v := os.Getenv("GRAYLOGIC_CLIMATE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_CLIMATE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_CLIMATE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	if v := os.Getenv("GRAYLOGIC_CLIMATE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYLOGIC_CLIMATE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error { //nolint:gocognit,gocyclo // flat list of independent field checks
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}

	// Climate loop
	switch c.Climate.TemperatureUnit {
	case UnitCelsius, UnitFahrenheit:
	default:
		errs = append(errs, `climate.temperature_unit must be "C" or "F"`)
	}
	if c.Climate.PollingPeriod <= 0 {
		errs = append(errs, "climate.polling_period must be positive")
	}
	if c.Climate.MinSleep <= 0 {
		errs = append(errs, "climate.min_sleep must be positive")
	}
	if c.Climate.MinSleep > c.Climate.PollingPeriod {
		errs = append(errs, "climate.min_sleep must not exceed climate.polling_period")
	}
	if c.Climate.AuxHeatThreshold < 0 {
		errs = append(errs, "climate.aux_heat_threshold must not be negative")
	}
	if c.Climate.HumidityTargetPercent < 0 || c.Climate.HumidityTargetPercent > 100 {
		errs = append(errs, "climate.humidity_target_percent must be between 0 and 100")
	}
	if c.Climate.HumidityThresholdPercent < 0 {
		errs = append(errs, "climate.humidity_threshold_percent must not be negative")
	}
	if c.Climate.MaxPowerOffRetries < 0 {
		errs = append(errs, "climate.max_power_off_retries must not be negative")
	}
	if c.Climate.DeviceTimeout <= 0 {
		errs = append(errs, "climate.device_timeout must be positive")
	}

	// Discovery
	if c.Discovery.HistoryLength < 1 {
		errs = append(errs, "discovery.history_length must be at least 1")
	}
	if c.Discovery.RefreshProbability < 0 || c.Discovery.RefreshProbability > 1 {
		errs = append(errs, "discovery.refresh_probability must be between 0 and 1")
	}

	// Thermostat
	if c.Thermostat.ProjectID == "" {
		errs = append(errs, "thermostat.project_id is required")
	}
	if c.Thermostat.RefreshToken == "" {
		errs = append(errs, "thermostat.refresh_token is required (set GRAYLOGIC_CLIMATE_THERMOSTAT_REFRESH_TOKEN)")
	}
	if c.Thermostat.ClientID == "" {
		errs = append(errs, "thermostat.client_id is required")
	}

	// Fans
	if c.Fans.Enabled {
		if c.Fans.Hub.BaseURL == "" {
			errs = append(errs, "fans.hub.base_url is required when fans are enabled")
		}
		if c.Fans.Hub.AppID == "" {
			errs = append(errs, "fans.hub.app_id is required when fans are enabled")
		}
		for i, f := range c.Fans.Devices {
			if f.ID == "" {
				errs = append(errs, fmt.Sprintf("fans.devices[%d].id is required", i))
			}
		}
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// AuxHeatThresholdCelsius returns the aux heat threshold as a Celsius delta.
// A Fahrenheit threshold is a temperature difference, so only the scale
// factor applies, not the 32 degree offset.
func (c *Config) AuxHeatThresholdCelsius() float64 {
	if c.Climate.TemperatureUnit == UnitFahrenheit {
		return c.Climate.AuxHeatThreshold * 5 / 9
	}
	return c.Climate.AuxHeatThreshold
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
