// SPDX-License-Identifier: EUPL-1.2

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quintel/goetm/curvestore"
	"github.com/quintel/goetm/etm"
	"github.com/quintel/goetm/internal/csvio"
)

func runCurvesCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printCurvesUsage()
		return 0
	}

	switch args[0] {
	case "fetch":
		return runCurvesFetch(args[1:])
	case "export":
		return runCurvesExport(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printCurvesUsage()
		return 2
	}
}

func printCurvesUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  etmctl curves fetch <id> [--kind merit_order|...|all] [--out DIR] [--store curves.db]")
	fmt.Fprintln(os.Stderr, "  etmctl curves export <id> --table application_demands|energy_flow|...")
}

func runCurvesFetch(args []string) int {
	fs := flag.NewFlagSet("etmctl curves fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath, kind, outDir, storePath string
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.StringVar(&kind, "kind", "all", "curve kind, or 'all' for every kind")
	fs.StringVar(&outDir, "out", "", "output directory (default: configured output dir)")
	fs.StringVar(&storePath, "store", "", "also store curves in this SQLite database")
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
	if outDir == "" {
		outDir = a.cfg.OutputDir
	}

	kinds, err := selectCurveKinds(kind)
	if err != nil {
		return fail(err)
	}

	var store *curvestore.Store
	if storePath != "" {
		store, err = curvestore.Open(storePath, curvestore.DefaultConfig())
		if err != nil {
			return fail(err)
		}
		defer func() { _ = store.Close() }()
	}

	ctx := context.Background()
	sep := []rune(a.cfg.CSVSeparator)[0]

	// All kinds of the scenario are fetched together; writes share the
	// output directory, so the fan-out is bounded by the kind count.
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	written := make([]string, 0, len(kinds))

	for _, k := range kinds {
		g.Go(func() error {
			frame, err := a.client.Curve(gctx, id, k)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", k, err)
			}
			frame.Comma = sep

			path := filepath.Join(outDir, curveFileName(id, k))
			if err := csvio.WriteFrame(gctx, path, frame); err != nil {
				return fmt.Errorf("write %s: %w", k, err)
			}
			if store != nil {
				if err := store.Put(gctx, id, k, frame); err != nil {
					return fmt.Errorf("store %s: %w", k, err)
				}
			}

			mu.Lock()
			written = append(written, path)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fail(err)
	}

	for _, path := range written {
		fmt.Println(path)
	}
	return 0
}

func runCurvesExport(args []string) int {
	fs := flag.NewFlagSet("etmctl curves export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath, table, outDir string
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.StringVar(&table, "table", "", "export table name")
	fs.StringVar(&outDir, "out", "", "output directory (default: configured output dir)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if table == "" {
		fmt.Fprintln(os.Stderr, "Error: --table is required")
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
	if outDir == "" {
		outDir = a.cfg.OutputDir
	}

	ctx := context.Background()
	frame, err := a.client.ExportTable(ctx, id, table)
	if err != nil {
		return fail(err)
	}
	frame.Comma = []rune(a.cfg.CSVSeparator)[0]

	path := filepath.Join(outDir, curveFileName(id, table))
	if err := csvio.WriteFrame(ctx, path, frame); err != nil {
		return fail(err)
	}

	fmt.Println(path)
	return 0
}

// selectCurveKinds resolves a kind flag value to the kinds to fetch.
func selectCurveKinds(kind string) ([]string, error) {
	if kind == "all" || kind == "" {
		return etm.CurveKinds, nil
	}
	for _, k := range etm.CurveKinds {
		if k == kind {
			return []string{kind}, nil
		}
	}
	return nil, fmt.Errorf("unknown curve kind %q", kind)
}

// curveFileName renders the export file name for one scenario and kind.
// Kind keys can contain slashes, so they are slugged.
func curveFileName(scenarioID int, kind string) string {
	return fmt.Sprintf("scenario_%d_%s.csv", scenarioID, csvio.Slug(kind))
}
