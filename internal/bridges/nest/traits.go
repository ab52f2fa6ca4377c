package nest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-climate/internal/climate"
)

// SDM identifiers.
const (
	TypeThermostat = "sdm.devices.types.THERMOSTAT"

	traitInfo        = "sdm.devices.traits.Info"
	traitHumidity    = "sdm.devices.traits.Humidity"
	traitTemperature = "sdm.devices.traits.Temperature"
	traitHvac        = "sdm.devices.traits.ThermostatHvac"
	traitSetpoint    = "sdm.devices.traits.ThermostatTemperatureSetpoint"
)

// Device is one SDM device resource.
type Device struct {
	Name            string                     `json:"name"`
	Type            string                     `json:"type"`
	Traits          map[string]json.RawMessage `json:"traits"`
	ParentRelations []struct {
		Parent      string `json:"parent"`
		DisplayName string `json:"displayName"`
	} `json:"parentRelations"`
}

type listResponse struct {
	Devices []Device `json:"devices"`
}

// DisplayName returns the custom name, else the room name, else the resource name.
func (d Device) DisplayName() string {
	var info struct {
		CustomName string `json:"customName"`
	}
	if d.trait(traitInfo, &info) && info.CustomName != "" {
		return info.CustomName
	}
	for _, p := range d.ParentRelations {
		if p.DisplayName != "" {
			return p.DisplayName
		}
	}
	return d.Name
}

// trait decodes one trait into v and reports whether it was present and valid.
func (d Device) trait(name string, v any) bool {
	raw, ok := d.Traits[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

// Reading converts the device traits to a climate reading.
//
// Temperature, humidity and HVAC status are required. Without a heat
// setpoint (the thermostat is in COOL mode or eco) the setpoint equals
// ambient, so there is no heat deficit.
func (d Device) Reading(at time.Time) (climate.Reading, error) {
	var temp struct {
		Ambient *float64 `json:"ambientTemperatureCelsius"`
	}
	if !d.trait(traitTemperature, &temp) || temp.Ambient == nil {
		return climate.Reading{}, fmt.Errorf("%w: %s has no ambient temperature", ErrInvalidDevice, d.Name)
	}

	var hvac struct {
		Status string `json:"status"`
	}
	if !d.trait(traitHvac, &hvac) || hvac.Status == "" {
		return climate.Reading{}, fmt.Errorf("%w: %s has no hvac status", ErrInvalidDevice, d.Name)
	}

	setpoint := *temp.Ambient
	var sp struct {
		Heat *float64 `json:"heatCelsius"`
	}
	if d.trait(traitSetpoint, &sp) && sp.Heat != nil {
		setpoint = *sp.Heat
	}

	var hum struct {
		Percent *float64 `json:"ambientHumidityPercent"`
	}
	if !d.trait(traitHumidity, &hum) || hum.Percent == nil {
		return climate.Reading{}, fmt.Errorf("%w: %s has no ambient humidity", ErrInvalidDevice, d.Name)
	}

	return climate.Reading{
		AmbientCelsius:      *temp.Ambient,
		HeatSetpointCelsius: setpoint,
		Status:              climate.Status(hvac.Status),
		HumidityPercent:     *hum.Percent,
		Thermostat:          d.DisplayName(),
		ReadAt:              at,
	}, nil
}
