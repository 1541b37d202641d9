// SPDX-License-Identifier: EUPL-1.2

package heat

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/quintel/goetm/models"
)

//go:embed data/house_properties.csv data/thermostat_values.csv
var defaultData embed.FS

// Portfolio is a collection of houses whose profiles are generated
// together, one per house type and insulation level.
type Portfolio struct {
	Houses []House
}

// DefaultPortfolio builds the reference housing stock: five house types
// at three insulation levels, with the bundled properties and thermostat
// programs.
func DefaultPortfolio() (*Portfolio, error) {
	props, err := defaultData.ReadFile("data/house_properties.csv")
	if err != nil {
		return nil, fmt.Errorf("heat: read bundled house properties: %w", err)
	}
	thermo, err := defaultData.ReadFile("data/thermostat_values.csv")
	if err != nil {
		return nil, fmt.Errorf("heat: read bundled thermostat values: %w", err)
	}
	return LoadPortfolio(bytes.NewReader(props), bytes.NewReader(thermo))
}

// LoadPortfolio reads a portfolio from two CSV documents: house
// properties (house_type, insulation_level, behaviour, r_value,
// window_area, surface_area, wall_thickness) and thermostat programs (one
// column per insulation level, 24 rows of setpoints).
func LoadPortfolio(properties, thermostats io.Reader) (*Portfolio, error) {
	programs, err := parseThermostats(thermostats)
	if err != nil {
		return nil, err
	}

	houses, err := parseHouses(properties, programs)
	if err != nil {
		return nil, err
	}
	if len(houses) == 0 {
		return nil, fmt.Errorf("heat: house properties document holds no houses")
	}
	return &Portfolio{Houses: houses}, nil
}

// DemandProfiles generates the profile of every house in the portfolio
// from shared temperature and irradiance series. Columns are the profile
// names, rows the 8760 hours.
func (p *Portfolio) DemandProfiles(temperature, irradiance []float64, smoother *Smoother) (*models.Frame, error) {
	columns := make([]string, len(p.Houses))
	series := make([][]float64, len(p.Houses))

	for i, house := range p.Houses {
		profile, err := house.DemandProfile(temperature, irradiance, smoother)
		if err != nil {
			return nil, err
		}
		columns[i] = house.ProfileName()
		series[i] = profile
	}

	frame := models.NewFrame(columns...)
	row := make([]float64, len(series))
	for hour := 0; hour < HoursPerYear; hour++ {
		for i := range series {
			row[i] = series[i][hour]
		}
		if err := frame.AppendFloats(row...); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

func parseHouses(r io.Reader, programs map[string][24]float64) ([]House, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("heat: parse house properties: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("heat: house properties document is empty")
	}

	idx, err := headerIndex(records[0],
		"house_type", "insulation_level", "behaviour", "r_value",
		"window_area", "surface_area", "wall_thickness")
	if err != nil {
		return nil, err
	}

	houses := make([]House, 0, len(records)-1)
	for line, record := range records[1:] {
		level := record[idx["insulation_level"]]
		program, ok := programs[level]
		if !ok {
			return nil, fmt.Errorf("heat: line %d: no thermostat program for insulation level %q", line+2, level)
		}

		house := House{
			Type:            record[idx["house_type"]],
			InsulationLevel: level,
			Thermostat:      program,
		}
		for field, dst := range map[string]*float64{
			"behaviour":      &house.Behaviour,
			"r_value":        &house.RValue,
			"window_area":    &house.WindowArea,
			"surface_area":   &house.SurfaceArea,
			"wall_thickness": &house.WallThickness,
		} {
			value, err := strconv.ParseFloat(record[idx[field]], 64)
			if err != nil {
				return nil, fmt.Errorf("heat: line %d: invalid %s: %w", line+2, field, err)
			}
			*dst = value
		}
		if err := house.Validate(); err != nil {
			return nil, err
		}
		houses = append(houses, house)
	}
	return houses, nil
}

func parseThermostats(r io.Reader) (map[string][24]float64, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("heat: parse thermostat values: %w", err)
	}
	if len(records) != 25 {
		return nil, fmt.Errorf("heat: thermostat document must hold a header and 24 rows, got %d rows", len(records))
	}

	header := records[0]
	programs := make(map[string][24]float64, len(header))
	for col, level := range header {
		var program [24]float64
		for hour, record := range records[1:] {
			value, err := strconv.ParseFloat(record[col], 64)
			if err != nil {
				return nil, fmt.Errorf("heat: thermostat %s hour %d: %w", level, hour, err)
			}
			program[hour] = value
		}
		programs[level] = program
	}
	return programs, nil
}

func headerIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("heat: house properties document misses column %q", name)
		}
	}
	return idx, nil
}
