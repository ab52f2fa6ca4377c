// Package config handles loading and validating Gray Logic Climate configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding secrets with GRAYLOGIC_CLIMATE_* environment variables
//   - Validation of required fields (all failures reported together)
//   - Default value handling
//
// Security Considerations:
//   - The thermostat refresh token, OAuth client secret, hub access token,
//     MQTT password and InfluxDB token should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Units:
//
// Temperatures arrive from the thermostat in Celsius. climate.temperature_unit
// only changes how temperatures are logged and how aux_heat_threshold is read;
// use AuxHeatThresholdCelsius for the value the control loop compares against.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Climate.PollingPeriod)
package config
