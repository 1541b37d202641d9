// SPDX-License-Identifier: EUPL-1.2

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
)

func runInputsCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printInputsUsage()
		return 0
	}

	switch args[0] {
	case "get":
		return runInputsGet(args[1:])
	case "set":
		return runInputsSet(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printInputsUsage()
		return 2
	}
}

func printInputsUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  etmctl inputs get <id> [key]")
	fmt.Fprintln(os.Stderr, "  etmctl inputs set <id> key=value [key=value ...]")
}

func runInputsGet(args []string) int {
	fs := flag.NewFlagSet("etmctl inputs get", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	var defaults bool
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.BoolVar(&defaults, "defaults", false, "report original defaults instead of scenario defaults")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	id, err := parseScenarioID(rest)
	if err != nil {
		return fail(err)
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}
	ctx := context.Background()

	if len(rest) > 1 {
		input, err := a.client.Input(ctx, id, rest[1])
		if err != nil {
			return fail(err)
		}
		return printJSON(input)
	}

	fetch := a.client.Inputs
	if defaults {
		fetch = a.client.InputsWithOriginalDefaults
	}
	coll, err := fetch(ctx, id)
	if err != nil {
		return fail(err)
	}
	return printJSON(coll.All())
}

func runInputsSet(args []string) int {
	fs := flag.NewFlagSet("etmctl inputs set", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	id, err := parseScenarioID(rest)
	if err != nil {
		return fail(err)
	}
	values, err := parseKeyValues(rest[1:])
	if err != nil {
		return fail(err)
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}

	scenario, err := a.client.SetUserValues(context.Background(), id, values)
	if err != nil {
		return fail(err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("%s = %v\n", key, scenario.UserValues[key])
	}
	return 0
}

func runQueryCLI(args []string) int {
	fs := flag.NewFlagSet("etmctl query", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	id, err := parseScenarioID(rest)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Usage: etmctl query <id> gquery [gquery ...]")
		return 2
	}
	if len(rest) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: etmctl query <id> gquery [gquery ...]")
		return 2
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}

	results, err := a.client.Query(context.Background(), id, rest[1:])
	if err != nil {
		return fail(err)
	}
	return printJSON(results)
}
