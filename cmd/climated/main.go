// Gray Logic Climate - thermostat-driven switch supplement loop
//
// This is the main entry point for the climate daemon. Each polling cycle it
// reads the Nest thermostat, reconciles the switches automation turned on
// against their live state, and drives WeMo switches (and optionally Hubitat
// fans) to supplement the HVAC system:
//   - auxiliary heaters when the room is well below the heating setpoint
//   - humidifiers when the air is dry
//   - fans and heating helpers that follow the HVAC status
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/gray-logic-climate/migrations"

	"github.com/nerrad567/gray-logic-climate/internal/api"
	"github.com/nerrad567/gray-logic-climate/internal/audit"
	"github.com/nerrad567/gray-logic-climate/internal/bridges/hubitat"
	"github.com/nerrad567/gray-logic-climate/internal/bridges/nest"
	"github.com/nerrad567/gray-logic-climate/internal/bridges/wemo"
	"github.com/nerrad567/gray-logic-climate/internal/climate"
	"github.com/nerrad567/gray-logic-climate/internal/device"
	"github.com/nerrad567/gray-logic-climate/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-climate/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-climate/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-climate/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-climate/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-climate/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing a startup failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Climate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version).WithTemperatureUnit(cfg.Climate.TemperatureUnit)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
		"temperature_unit", cfg.Climate.TemperatureUnit,
	)

	// Open audit database (optional)
	var db *database.DB
	if cfg.Database.Enabled {
		db, err = database.Open(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)

		applied, migrateErr := db.Migrate(ctx)
		if migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database migrations complete", "applied", applied)
	} else {
		log.Info("audit database disabled")
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(ctx, cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.With("component", "mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Thermostat
	thermostat := nest.New(nestConfig(cfg), nest.NewOAuthHTTPClient(ctx, nest.Credentials{
		ClientID:     cfg.Thermostat.ClientID,
		ClientSecret: cfg.Thermostat.ClientSecret,
		RefreshToken: cfg.Thermostat.RefreshToken,
		TokenURL:     cfg.Thermostat.TokenURL,
	}, cfg.Thermostat.Timeout))
	thermostat.SetLogger(log.With("component", "nest"))

	// Switch discovery
	directory := wemo.NewDirectory(directoryConfig(cfg))
	directory.SetLogger(log.With("component", "wemo"))

	registry := device.NewRegistry(directory, device.RegistryConfig{
		HistoryLength:      cfg.Discovery.HistoryLength,
		RefreshProbability: cfg.Discovery.RefreshProbability,
	})
	registry.SetLogger(log.With("component", "registry"))

	catalog := buildCatalog(cfg.Devices)
	log.Info("device catalog loaded", "names", catalog.Len())

	controller := climate.NewController(controllerSettings(cfg), registry, thermostat, catalog)
	controller.SetLogger(log)

	// Fans (optional)
	if cfg.Fans.Enabled {
		fans, fanErr := hubitat.New(hubitat.Config{
			BaseURL:     cfg.Fans.Hub.BaseURL,
			AppID:       cfg.Fans.Hub.AppID,
			AccessToken: cfg.Fans.Hub.AccessToken,
			Timeout:     cfg.Fans.Hub.Timeout,
		}, nil)
		if fanErr != nil {
			return fmt.Errorf("configuring fan hub: %w", fanErr)
		}
		controller.SetFanController(fans)
		log.Info("fan control enabled", "fans", len(cfg.Fans.Devices))
	}

	// Report sinks
	var events api.EventLister
	if db != nil {
		repo := audit.NewSQLiteRepository(db.DB)
		sink := audit.NewSink(repo, cfg.Site.ID)
		sink.SetLogger(log.With("component", "audit"))
		controller.AddSink(sink)
		events = repo
	}
	if mqttClient != nil {
		sink := telemetry.NewMQTTSink(mqttClient, cfg.Site.ID, byte(cfg.MQTT.QoS)) //nolint:gosec // validated 0-2
		sink.SetLogger(log.With("component", "telemetry"))
		controller.AddSink(sink)
	}
	if influxClient != nil {
		controller.AddSink(telemetry.NewInfluxSink(influxClient, cfg.Site.ID))
	}

	// Status API (optional)
	var apiServer *api.Server
	if cfg.API.Enabled {
		hub := api.NewHub(cfg.WebSocket, log)
		deps := api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Logger:     log,
			Controller: controller,
			Events:     events,
			Thermostat: thermostat,
			Hub:        hub,
			Version:    version,
		}
		if mqttClient != nil {
			deps.MQTT = mqttClient
		}

		apiServer, err = api.New(deps)
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		controller.AddSink(telemetry.NewHubSink(hub, cfg.Site.ID))
	} else {
		log.Info("status API disabled")
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, starting control loop",
		"polling_period", cfg.Climate.PollingPeriod,
		"min_sleep", cfg.Climate.MinSleep,
	)

	if err := controller.Run(ctx); err != nil {
		return fmt.Errorf("control loop: %w", err)
	}

	// Deferred Close() calls run in reverse order:
	// API server, InfluxDB, MQTT, database.
	log.Info("Gray Logic Climate stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYLOGIC_CLIMATE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYLOGIC_CLIMATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildCatalog converts the configured device name lists to a catalog.
func buildCatalog(d config.DevicesConfig) *climate.Catalog {
	return climate.NewCatalog(map[climate.Tag][]string{
		climate.TagHeating:    d.Heating,
		climate.TagCooling:    d.Cooling,
		climate.TagAuxHeating: d.AuxHeating,
		climate.TagHumidifier: d.Humidifier,
	})
}

// fanBindings maps configured fan speeds to HVAC statuses. Fans are only
// bound when fan control is enabled.
func fanBindings(f config.FansConfig) []climate.FanBinding {
	if !f.Enabled {
		return nil
	}
	bindings := make([]climate.FanBinding, 0, len(f.Devices))
	for _, d := range f.Devices {
		bindings = append(bindings, climate.FanBinding{
			ID: d.ID,
			Speeds: map[climate.Status]string{
				climate.StatusHeating: d.HeatingSpeed,
				climate.StatusCooling: d.CoolingSpeed,
				climate.StatusOff:     d.IdleSpeed,
			},
		})
	}
	return bindings
}

// controllerSettings converts the climate section to controller settings.
func controllerSettings(cfg *config.Config) climate.Settings {
	return climate.Settings{
		PollingPeriod:      cfg.Climate.PollingPeriod,
		MinSleep:           cfg.Climate.MinSleep,
		DeviceTimeout:      cfg.Climate.DeviceTimeout,
		MaxPowerOffRetries: cfg.Climate.MaxPowerOffRetries,
		Policy: climate.PolicyConfig{
			AuxHeatThresholdCelsius:  cfg.AuxHeatThresholdCelsius(),
			HumidityTargetPercent:    cfg.Climate.HumidityTargetPercent,
			HumidityThresholdPercent: cfg.Climate.HumidityThresholdPercent,
			Fans:                     fanBindings(cfg.Fans),
		},
	}
}

// nestConfig converts the thermostat section to SDM client settings.
// directoryConfig bounds every setup.xml fetch and SOAP call by the device timeout.
func directoryConfig(cfg *config.Config) wemo.DirectoryConfig {
	return wemo.DirectoryConfig{
		Wait:         cfg.Discovery.Wait,
		LocalAddr:    cfg.Discovery.LocalAddr,
		SetupTimeout: cfg.Climate.DeviceTimeout,
		HTTPClient:   &http.Client{Timeout: cfg.Climate.DeviceTimeout},
	}
}

func nestConfig(cfg *config.Config) nest.Config {
	return nest.Config{
		ProjectID:   cfg.Thermostat.ProjectID,
		DeviceName:  cfg.Thermostat.DeviceName,
		BaseURL:     cfg.Thermostat.BaseURL,
		Timeout:     cfg.Thermostat.Timeout,
		MaxFailures: cfg.Thermostat.Breaker.MaxFailures,
		OpenTimeout: cfg.Thermostat.Breaker.OpenTimeout,
	}
}

// healthCheck verifies all enabled infrastructure is healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check (may be nil if disabled)
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - apiServer: Status API server to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if apiServer != nil {
		if err := apiServer.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	// The thermostat and switches are checked by the first cycle; an outage
	// there skips cycles rather than blocking startup.
	return nil
}
