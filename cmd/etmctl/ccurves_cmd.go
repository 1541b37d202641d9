// SPDX-License-Identifier: EUPL-1.2

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quintel/goetm/etm"
	"github.com/quintel/goetm/internal/csvio"
)

func runCCurvesCLI(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printCCurvesUsage()
		return 0
	}

	switch args[0] {
	case "list":
		return runCCurvesList(args[1:])
	case "download":
		return runCCurvesDownload(args[1:])
	case "upload":
		return runCCurvesUpload(args[1:])
	case "delete":
		return runCCurvesDelete(args[1:])
	case "sync":
		return runCCurvesSync(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", args[0])
		printCCurvesUsage()
		return 2
	}
}

func printCCurvesUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  etmctl ccurves list <id> [--unattached] [--internal]")
	fmt.Fprintln(os.Stderr, "  etmctl ccurves download <id> <key> [--out DIR]")
	fmt.Fprintln(os.Stderr, "  etmctl ccurves upload <id> <key> <file.csv> [--name NAME]")
	fmt.Fprintln(os.Stderr, "  etmctl ccurves delete <id> <key> [key...]")
	fmt.Fprintln(os.Stderr, "  etmctl ccurves sync <id> --watch DIR")
}

func runCCurvesList(args []string) int {
	fs := flag.NewFlagSet("etmctl ccurves list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath string
	var unattached, internal bool
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.BoolVar(&unattached, "unattached", false, "include curve slots without data")
	fs.BoolVar(&internal, "internal", false, "include engine-managed curves")
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

	set, err := a.client.CustomCurves(context.Background(), id, etm.CustomCurveOptions{
		IncludeUnattached: unattached,
		IncludeInternal:   internal,
	})
	if err != nil {
		return fail(err)
	}

	for _, curve := range set.Curves {
		state := "attached"
		if !curve.Attached {
			state = "unattached"
		}
		fmt.Printf("%-40s %-10s %s\n", curve.Key, state, curve.Name)
	}
	return 0
}

func runCCurvesDownload(args []string) int {
	fs := flag.NewFlagSet("etmctl ccurves download", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath, outDir string
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.StringVar(&outDir, "out", "", "output directory (default: configured output dir)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	id, err := parseScenarioID(fs.Args())
	if err != nil {
		return fail(err)
	}
	if fs.NArg() < 2 {
		return fail(fmt.Errorf("curve key is required"))
	}
	key := fs.Arg(1)

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}
	if outDir == "" {
		outDir = a.cfg.OutputDir
	}

	ctx := context.Background()
	values, err := a.client.DownloadCustomCurve(ctx, id, key)
	if err != nil {
		return fail(err)
	}

	// The file is named after the curve key so `ccurves sync` maps it
	// back to the same slot.
	path := filepath.Join(outDir, key+".csv")
	if err := csvio.WriteSeries(ctx, path, values); err != nil {
		return fail(err)
	}

	fmt.Println(path)
	return 0
}

func runCCurvesUpload(args []string) int {
	fs := flag.NewFlagSet("etmctl ccurves upload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath, name string
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.StringVar(&name, "name", "", "display name for the uploaded curve (default: file name)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	id, err := parseScenarioID(fs.Args())
	if err != nil {
		return fail(err)
	}
	if fs.NArg() < 3 {
		return fail(fmt.Errorf("curve key and file are required"))
	}
	key, file := fs.Arg(1), fs.Arg(2)
	if name == "" {
		name = filepath.Base(file)
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}

	values, err := csvio.ReadSeriesFile(file)
	if err != nil {
		return fail(err)
	}

	info, err := a.client.UploadCustomCurve(context.Background(), id, key, name, values)
	if err != nil {
		return fail(err)
	}

	fmt.Printf("Uploaded %s (%s)\n", info.Key, info.Name)
	return 0
}

func runCCurvesDelete(args []string) int {
	fs := flag.NewFlagSet("etmctl ccurves delete", flag.ContinueOnError)
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
	keys := fs.Args()[1:]
	if len(keys) == 0 {
		return fail(fmt.Errorf("at least one curve key is required"))
	}

	a, err := bootstrap(configPath)
	if err != nil {
		return fail(err)
	}

	if err := a.client.DeleteCustomCurves(context.Background(), id, keys...); err != nil {
		return fail(err)
	}

	fmt.Printf("Deleted %d curve(s)\n", len(keys))
	return 0
}

// runCCurvesSync watches a directory of curve CSV files and re-uploads a
// curve whenever its file changes. File names map to curve keys:
// weather_curves_air_temperature.csv uploads to the
// weather_curves_air_temperature slot.
func runCCurvesSync(args []string) int {
	fs := flag.NewFlagSet("etmctl ccurves sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var configPath, watchDir string
	fs.StringVar(&configPath, "config", "", "path to configuration file")
	fs.StringVar(&watchDir, "watch", "", "directory of curve CSV files to watch")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if watchDir == "" {
		fmt.Fprintln(os.Stderr, "Error: --watch is required")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watchCurveDir(ctx, a, id, watchDir); err != nil {
		return fail(err)
	}
	return 0
}

// syncDebounce coalesces the event bursts editors produce when saving.
const syncDebounce = 500 * time.Millisecond

func watchCurveDir(ctx context.Context, a *app, scenarioID int, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger := a.logger.With().Int("scenario_id", scenarioID).Str("dir", dir).Logger()
	logger.Info().Str("event", "sync.start").Msg("watching curve directory")

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			logger.Info().Str("event", "sync.stop").Msg("stopping curve sync")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !strings.HasSuffix(event.Name, ".csv") {
				continue
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(syncDebounce)
			} else {
				timer.Reset(syncDebounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			for path := range pending {
				delete(pending, path)
				if err := uploadCurveFile(ctx, a, scenarioID, path); err != nil {
					logger.Error().Err(err).Str("file", path).
						Str("event", "sync.upload_failed").
						Msg("curve upload failed")
					continue
				}
				logger.Info().Str("file", path).
					Str("event", "sync.uploaded").
					Msg("curve uploaded")
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Str("event", "sync.watch_error").Msg("watch error")
		}
	}
}

func uploadCurveFile(ctx context.Context, a *app, scenarioID int, path string) error {
	key := strings.TrimSuffix(filepath.Base(path), ".csv")
	values, err := csvio.ReadSeriesFile(path)
	if err != nil {
		return err
	}
	_, err = a.client.UploadCustomCurve(ctx, scenarioID, key, filepath.Base(path), values)
	return err
}
