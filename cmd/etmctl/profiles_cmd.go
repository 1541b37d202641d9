// SPDX-License-Identifier: EUPL-1.2

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quintel/goetm/internal/csvio"
	"github.com/quintel/goetm/profiles/heat"
)

func runProfilesCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printProfilesUsage()
		return 0
	}

	switch args[0] {
	case "heat":
		return runProfilesHeat(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printProfilesUsage()
		return 2
	}
}

func printProfilesUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  etmctl profiles heat --temperature FILE --irradiance FILE [--out DIR]")
	fmt.Fprintln(os.Stderr, "                       [--properties FILE] [--thermostat FILE] [--no-smoothing]")
}

// runProfilesHeat turns a year of hourly weather data into normalized heat
// demand profiles, one column per house type and insulation level.
func runProfilesHeat(args []string) int {
	fs := flag.NewFlagSet("etmctl profiles heat", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath, tempFile, irrFile, outDir, propsFile, thermoFile string
	var noSmoothing bool
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.StringVar(&tempFile, "temperature", "", "hourly air temperature CSV (8760 values, degrees C)")
	fs.StringVar(&irrFile, "irradiance", "", "hourly solar irradiance CSV (8760 values, W/m2)")
	fs.StringVar(&outDir, "out", "", "output directory (default: configured output dir)")
	fs.StringVar(&propsFile, "properties", "", "house properties CSV (default: built-in)")
	fs.StringVar(&thermoFile, "thermostat", "", "thermostat values CSV (default: built-in)")
	fs.BoolVar(&noSmoothing, "no-smoothing", false, "skip behavioural smoothing")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if tempFile == "" || irrFile == "" {
		fmt.Fprintln(os.Stderr, "Error: --temperature and --irradiance are required")
		return 2
	}
	if (propsFile == "") != (thermoFile == "") {
		fmt.Fprintln(os.Stderr, "Error: --properties and --thermostat must be given together")
		return 2
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}
	if outDir == "" {
		outDir = a.cfg.OutputDir
	}

	temperature, err := csvio.ReadSeriesFile(tempFile)
	if err != nil {
		return fail(fmt.Errorf("read temperature: %w", err))
	}
	irradiance, err := csvio.ReadSeriesFile(irrFile)
	if err != nil {
		return fail(fmt.Errorf("read irradiance: %w", err))
	}

	portfolio, err := loadPortfolio(propsFile, thermoFile)
	if err != nil {
		return fail(err)
	}

	var smoother *heat.Smoother
	if !noSmoothing {
		smoother = heat.NewSmoother()
	}

	frame, err := portfolio.DemandProfiles(temperature, irradiance, smoother)
	if err != nil {
		return fail(err)
	}
	frame.Comma = []rune(a.cfg.CSVSeparator)[0]

	path := filepath.Join(outDir, "heat_demand_profiles.csv")
	if err := csvio.WriteFrame(context.Background(), path, frame); err != nil {
		return fail(err)
	}

	fmt.Println(path)
	return 0
}

func loadPortfolio(propsFile, thermoFile string) (*heat.Portfolio, error) {
	if propsFile == "" {
		return heat.DefaultPortfolio()
	}

	props, err := os.Open(propsFile)
	if err != nil {
		return nil, fmt.Errorf("open properties: %w", err)
	}
	defer func() { _ = props.Close() }()

	thermo, err := os.Open(thermoFile)
	if err != nil {
		return nil, fmt.Errorf("open thermostat: %w", err)
	}
	defer func() { _ = thermo.Close() }()

	return heat.LoadPortfolio(props, thermo)
}
