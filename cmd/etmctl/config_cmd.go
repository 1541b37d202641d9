// SPDX-License-Identifier: EUPL-1.2

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/quintel/goetm/internal/config"
)

func runConfigCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage()
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:])
	case "dump":
		return runConfigDump(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage()
		return 2
	}
}

func printConfigUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  etmctl config validate [--file|-f goetm.yaml]")
	fmt.Fprintln(os.Stderr, "  etmctl config dump [--file|-f goetm.yaml] [--format=yaml|json|toml]")
}

func runConfigValidate(args []string) int {
	fs := flag.NewFlagSet("etmctl config validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	fs.StringVar(&file, "file", "", "path to configuration file")
	fs.StringVar(&file, "f", "", "path to configuration file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = config.ResolveDefaultPath(".")
	}

	loader := config.NewLoader(configPath, version)
	if _, err := loader.Load(); err != nil {
		if configPath == "" {
			fmt.Fprintf(os.Stderr, "Configuration error:\n  %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", configPath, err)
		}
		return 1
	}

	if configPath == "" {
		fmt.Println("configuration is valid (defaults and environment only)")
	} else {
		fmt.Printf("%s is valid\n", configPath)
	}
	return 0
}

func runConfigDump(args []string) int {
	fs := flag.NewFlagSet("etmctl config dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file, format string
	fs.StringVar(&file, "file", "", "path to configuration file")
	fs.StringVar(&file, "f", "", "path to configuration file (shorthand)")
	fs.StringVar(&format, "format", "yaml", "output format: yaml, json or toml")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	configPath := strings.TrimSpace(file)
	if configPath == "" {
		configPath = config.ResolveDefaultPath(".")
	}

	loader := config.NewLoader(configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error:\n  %v\n", err)
		return 1
	}

	// The dump goes through the file document shape with the token
	// redacted, so it can be pasted into a config file or a ticket.
	fileCfg := config.FileConfigFrom(cfg)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	case "toml":
		enc := toml.NewEncoder(os.Stdout)
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode TOML: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unsupported format: %s (use yaml, json or toml)\n", format)
		return 2
	}
}
