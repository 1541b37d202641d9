// SPDX-License-Identifier: EUPL-1.2

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/quintel/goetm/etm"
)

func runSavedCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printSavedUsage()
		return 0
	}

	switch args[0] {
	case "list":
		return runSavedList(args[1:])
	case "create":
		return runSavedCreate(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printSavedUsage()
		return 2
	}
}

func printSavedUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  etmctl saved list [--page N] [--limit N]")
	fmt.Fprintln(os.Stderr, "  etmctl saved create <id> [--title TITLE] [--description TEXT] [--private]")
}

func runSavedList(args []string) int {
	fs := flag.NewFlagSet("etmctl saved list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	var page, limit int
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.IntVar(&page, "page", 1, "page of the saved scenario index")
	fs.IntVar(&limit, "limit", 25, "entries per page")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}

	result, err := a.client.SavedScenarios(context.Background(), page, limit)
	if err != nil {
		return fail(err)
	}

	for _, saved := range result.Data {
		fmt.Printf("%-10d %-10d %s\n", saved.ID, saved.ScenarioID, saved.Title)
	}
	if result.Meta.TotalPages > 1 {
		fmt.Printf("Page %d of %d (%d total)\n",
			result.Meta.CurrentPage, result.Meta.TotalPages, result.Meta.Total)
	}
	return 0
}

func runSavedCreate(args []string) int {
	fs := flag.NewFlagSet("etmctl saved create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath, title, description string
	var private bool
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.StringVar(&title, "title", "", "saved scenario title")
	fs.StringVar(&description, "description", "", "saved scenario description")
	fs.BoolVar(&private, "private", false, "hide the saved scenario from other users")
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

	attrs := etm.SavedScenarioAttrs{Title: title, Description: description}
	if private {
		attrs.Private = boolPtr(true)
	}

	saved, err := a.client.CreateSavedScenario(context.Background(), id, attrs)
	if err != nil {
		return fail(err)
	}

	return printJSON(saved)
}
