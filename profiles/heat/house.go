// SPDX-License-Identifier: EUPL-1.2

// Package heat generates hourly space-heating demand profiles for
// residential building stock. A house is modelled as a concrete thermal
// mass behind an insulation shell: each hour the thermostat program pulls
// the inside temperature up, heat leaks out through the shell and solar
// irradiance through the windows warms the mass back up. The per-house
// profile is then smoothed into a neighbourhood profile and normalized
// for upload as a custom curve.
package heat

import (
	"fmt"
	"strings"
)

// HoursPerYear is the length of every profile handled by this package.
const HoursPerYear = 8760

// Concrete properties used by the thermal model.
const (
	// concreteDensity is the density of concrete in kg/m3.
	concreteDensity = 2.4e3
	// concreteHeat is the specific heat of concrete in J/(kg*K), scaled
	// by 1e3.
	concreteHeat = 0.88e3
)

// House is the aggregate heating model for one house type at one
// insulation level.
type House struct {
	Type            string
	InsulationLevel string

	// Behaviour captures occupant behaviour effects on demand.
	Behaviour float64
	// RValue is the insulation value of the shell in m2*K/W.
	RValue float64
	// WindowArea is the window surface in m2 through which irradiance is
	// absorbed.
	WindowArea float64
	// SurfaceArea is the shell surface in m2.
	SurfaceArea float64
	// WallThickness is the concrete wall thickness in m.
	WallThickness float64

	// Thermostat is the 24-hour setpoint program in degrees Celsius.
	Thermostat [24]float64
}

// UValue is the thermal transmittance of the shell in W/(m2*K).
func (h House) UValue() float64 { return 1 / h.RValue }

// ConcreteMass is the mass of the shell in kg.
func (h House) ConcreteMass() float64 {
	return h.SurfaceArea * h.WallThickness * concreteDensity
}

// HeatCapacity is the heat capacity of the shell in kWh/K.
func (h House) HeatCapacity() float64 {
	return h.ConcreteMass() * concreteHeat / 3.6e6
}

// ExchangeDelta is the heat exchange rate of the shell in kW/K.
func (h House) ExchangeDelta() float64 {
	return h.UValue() * h.SurfaceArea / 1e3
}

// ProfileName is the curve key the profile is uploaded under.
func (h House) ProfileName() string {
	return fmt.Sprintf("weather/insulation_%s_%s", h.Type, h.InsulationLevel)
}

// Validate checks that the house parameters can drive the thermal model.
func (h House) Validate() error {
	if strings.TrimSpace(h.Type) == "" {
		return fmt.Errorf("heat: house type must not be empty")
	}
	if h.RValue <= 0 {
		return fmt.Errorf("heat: house %s: r_value must be positive, got %g", h.Type, h.RValue)
	}
	if h.SurfaceArea <= 0 || h.WallThickness <= 0 {
		return fmt.Errorf("heat: house %s: surface area and wall thickness must be positive", h.Type)
	}
	if h.WindowArea < 0 {
		return fmt.Errorf("heat: house %s: window area must not be negative", h.Type)
	}
	return nil
}

// DemandProfile simulates one year of heating given hourly outdoor
// temperatures in degrees Celsius and solar irradiance in W/m2, both of
// length 8760. The result is smoothed with smoother and normalized so the
// values sum to 1/3600, the shape ETEngine expects for demand curves.
func (h House) DemandProfile(temperature, irradiance []float64, smoother *Smoother) ([]float64, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if len(temperature) != HoursPerYear {
		return nil, fmt.Errorf("heat: temperature profile must have %d values, got %d", HoursPerYear, len(temperature))
	}
	if len(irradiance) != HoursPerYear {
		return nil, fmt.Errorf("heat: irradiance profile must have %d values, got %d", HoursPerYear, len(irradiance))
	}
	if smoother == nil {
		smoother = NewSmoother()
	}

	capacity := h.HeatCapacity()
	exchange := h.ExchangeDelta()

	demand := make([]float64, HoursPerYear)
	inside := h.Thermostat[0]

	for hour := range demand {
		setpoint := h.Thermostat[hour%24]

		// Heat the mass up to the setpoint; the energy to do so is the
		// demand for this hour.
		demand[hour] = max(setpoint-inside, 0) * capacity
		inside = max(setpoint, inside)

		// The shell exchanges heat with the outdoors and the windows
		// absorb irradiance; both adjust the inside temperature before
		// the next hour.
		leakage := (inside - temperature[hour]) * exchange
		absorption := irradiance[hour] * h.WindowArea
		inside -= (leakage + absorption) / capacity
	}

	smoothed, err := smoother.Smooth(demand, h.InsulationLevel)
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, v := range smoothed {
		sum += v
	}
	if sum <= 0 {
		return nil, fmt.Errorf("heat: house %s/%s produced no demand", h.Type, h.InsulationLevel)
	}
	for i := range smoothed {
		smoothed[i] = smoothed[i] / sum / 3.6e3
	}
	return smoothed, nil
}
