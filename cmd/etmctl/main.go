// SPDX-License-Identifier: EUPL-1.2

// Command etmctl works with Energy Transition Model scenarios from the
// command line: scenario lifecycle, slider settings, gquery results,
// hourly curve downloads, custom curve management and heat profile
// generation.
package main

import (
	"fmt"
	"os"
)

var (
	version   = "1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return 0
	case "-v", "--version", "version":
		fmt.Printf("etmctl %s (commit: %s, built: %s)\n", version, commit, buildDate)
		return 0
	case "config":
		return runConfigCLI(args[1:])
	case "scenario":
		return runScenarioCLI(args[1:])
	case "inputs":
		return runInputsCLI(args[1:])
	case "query":
		return runQueryCLI(args[1:])
	case "curves":
		return runCurvesCLI(args[1:])
	case "ccurves":
		return runCCurvesCLI(args[1:])
	case "saved":
		return runSavedCLI(args[1:])
	case "profiles":
		return runProfilesCLI(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: etmctl <command> [arguments]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  config    validate or dump the effective configuration")
	fmt.Fprintln(os.Stderr, "  scenario  create, show, copy, delete, reset or interpolate scenarios")
	fmt.Fprintln(os.Stderr, "  inputs    get or set scenario slider settings")
	fmt.Fprintln(os.Stderr, "  query     resolve gqueries against a scenario")
	fmt.Fprintln(os.Stderr, "  curves    download hourly curves and export tables")
	fmt.Fprintln(os.Stderr, "  ccurves   manage attached custom curves")
	fmt.Fprintln(os.Stderr, "  saved     list or create saved scenarios")
	fmt.Fprintln(os.Stderr, "  profiles  generate heat demand profiles")
	fmt.Fprintln(os.Stderr, "  version   print version information")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Run 'etmctl <command> -h' for command help.")
}
