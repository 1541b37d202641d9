// SPDX-License-Identifier: EUPL-1.2

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/quintel/goetm/etm"
)

func runScenarioCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printScenarioUsage()
		return 0
	}

	switch args[0] {
	case "create":
		return runScenarioCreate(args[1:])
	case "show":
		return runScenarioShow(args[1:])
	case "copy":
		return runScenarioCopy(args[1:])
	case "delete":
		return runScenarioDelete(args[1:])
	case "reset":
		return runScenarioReset(args[1:])
	case "interpolate":
		return runScenarioInterpolate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printScenarioUsage()
		return 2
	}
}

func printScenarioUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  etmctl scenario create --area nl2019 --end-year 2050 [--private]")
	fmt.Fprintln(os.Stderr, "  etmctl scenario show <id>")
	fmt.Fprintln(os.Stderr, "  etmctl scenario copy <id> [--keep-compatible]")
	fmt.Fprintln(os.Stderr, "  etmctl scenario delete <id>")
	fmt.Fprintln(os.Stderr, "  etmctl scenario reset <id>")
	fmt.Fprintln(os.Stderr, "  etmctl scenario interpolate <id> --end-year 2040")
}

func runScenarioCreate(args []string) int {
	fs := flag.NewFlagSet("etmctl scenario create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath, area string
	var endYear int
	var private bool
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.StringVar(&area, "area", "", "area code, e.g. nl2019")
	fs.IntVar(&endYear, "end-year", 2050, "scenario end year")
	fs.BoolVar(&private, "private", false, "create the scenario as private")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if area == "" {
		fmt.Fprintln(os.Stderr, "Error: --area is required")
		return 2
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}

	scenario, err := a.client.CreateScenario(context.Background(), etm.ScenarioAttrs{
		AreaCode: area,
		EndYear:  endYear,
		Private:  boolPtr(private),
	})
	if err != nil {
		return fail(err)
	}

	fmt.Printf("created scenario %d (%s, %d-%d)\n",
		scenario.ID, scenario.AreaCode, scenario.StartYear, scenario.EndYear)
	if url, err := a.client.ScenarioURL(scenario.ID); err == nil {
		fmt.Println(url)
	}
	return 0
}

func runScenarioShow(args []string) int {
	fs := flag.NewFlagSet("etmctl scenario show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	id, err := parseScenarioID(fs.Args())
	if err != nil {
		return fail(err)
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}

	scenario, err := a.client.Scenario(context.Background(), id)
	if err != nil {
		return fail(err)
	}
	return printJSON(scenario)
}

func runScenarioCopy(args []string) int {
	fs := flag.NewFlagSet("etmctl scenario copy", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	var keepCompatible bool
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.BoolVar(&keepCompatible, "keep-compatible", false, "protect the copy against engine data updates")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	id, err := parseScenarioID(fs.Args())
	if err != nil {
		return fail(err)
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}
	ctx := context.Background()

	var attrs etm.ScenarioAttrs
	if keepCompatible {
		attrs.KeepCompatible = boolPtr(true)
	}

	scenario, err := a.client.CopyScenario(ctx, id, attrs)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("copied scenario %d to %d\n", id, scenario.ID)
	return 0
}

func runScenarioDelete(args []string) int {
	return simpleScenarioOp(args, "deleted scenario %d\n", func(ctx context.Context, a *app, id int) error {
		return a.client.DeleteScenario(ctx, id)
	})
}

func runScenarioReset(args []string) int {
	return simpleScenarioOp(args, "reset scenario %d\n", func(ctx context.Context, a *app, id int) error {
		return a.client.ResetScenario(ctx, id)
	})
}

func runScenarioInterpolate(args []string) int {
	fs := flag.NewFlagSet("etmctl scenario interpolate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	var endYear int
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.IntVar(&endYear, "end-year", 0, "target end year between the start year and 2050")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if endYear == 0 {
		fmt.Fprintln(os.Stderr, "Error: --end-year is required")
		return 2
	}

	id, err := parseScenarioID(fs.Args())
	if err != nil {
		return fail(err)
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}

	scenario, err := a.client.InterpolateScenario(context.Background(), id, endYear)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("interpolated scenario %d to %d (end year %d)\n", id, scenario.ID, scenario.EndYear)
	return 0
}

func simpleScenarioOp(args []string, doneFormat string, op func(context.Context, *app, int) error) int {
	fs := flag.NewFlagSet("etmctl scenario", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	id, err := parseScenarioID(fs.Args())
	if err != nil {
		return fail(err)
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}
	if err := op(context.Background(), a, id); err != nil {
		return fail(err)
	}

	fmt.Printf(doneFormat, id)
	return 0
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fail(err)
	}
	return 0
}

func boolPtr(v bool) *bool { return &v }
