// SPDX-License-Identifier: EUPL-1.2

// Command etm-mock-engine serves an in-memory stand-in for ETEngine. It
// speaks the same HTTP API as the real engine and is meant for offline
// development and integration tests of API consumers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quintel/goetm/internal/log"
	"github.com/quintel/goetm/internal/mockengine"
	"github.com/quintel/goetm/internal/telemetry"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	listenAddr := flag.String("listen", ":3000", "address to serve the mock engine on")
	logLevel := flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rateLimit := flag.Int("rate-limit", 0, "requests per client per window, 0 disables throttling")
	rateWindow := flag.Duration("rate-window", time.Minute, "throttling window")
	otlpEndpoint := flag.String("otlp-endpoint", "", "OTLP collector endpoint, empty disables tracing")
	otlpExporter := flag.String("otlp-exporter", "grpc", "OTLP transport (grpc or http)")
	traceSampling := flag.Float64("trace-sampling", 1.0, "trace sampling rate between 0 and 1")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	log.Configure(log.Config{
		Level:   *logLevel,
		Service: "etm-mock-engine",
		Version: version,
	})
	logger := log.WithComponent("mock-engine")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        *otlpEndpoint != "",
		ServiceName:    "etm-mock-engine",
		ServiceVersion: version,
		ExporterType:   *otlpExporter,
		Endpoint:       *otlpEndpoint,
		SamplingRate:   *traceSampling,
	})
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "telemetry.setup_failed").
			Msg("failed to set up tracing")
	}

	engine := mockengine.NewEngine(mockengine.Options{
		RateLimit:      *rateLimit,
		RateWindow:     *rateWindow,
		TracingService: tracingService(*otlpEndpoint),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              *listenAddr,
		Handler:           engine.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", *listenAddr).
			Str("event", "server.listening").
			Msg("mock engine listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("mock engine server: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		logger.Error().
			Err(err).
			Str("event", "server.failed").
			Msg("mock engine server failed")
	case <-ctx.Done():
		logger.Info().
			Str("event", "server.stopping").
			Msg("shutdown signal received")
	}

	// Bounded shutdown that survives parent cancellation.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().
			Err(err).
			Str("event", "server.shutdown_failed").
			Msg("graceful shutdown failed")
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		logger.Error().
			Err(err).
			Str("event", "telemetry.shutdown_failed").
			Msg("failed to flush traces")
	}

	logger.Info().
		Str("event", "server.stopped").
		Msg("mock engine stopped")
}

// tracingService names the server spans only when an exporter is configured,
// keeping the hot path free of tracing middleware otherwise.
func tracingService(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	return "etm-mock-engine"
}
