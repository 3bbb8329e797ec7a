// Package main is the entry point for the Skycast API.
//
// It loads configuration, builds the outbound clients, the weather
// orchestrator and the HTTP chassis, then either listens on the configured
// port or, inside AWS Lambda, serves API Gateway HTTP API events through the
// same router. SIGINT and SIGTERM trigger a graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"

	"skycast/internal/api/handlers"
	"skycast/internal/config"
	"skycast/internal/core"
	"skycast/internal/external"
	"skycast/internal/telemetry"
	"skycast/internal/types"
	"skycast/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(config.NewEnvVarProvider())
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("skycast API starting",
		"environment", cfg.Environment,
		"version", cfg.Build.Version,
		"commit", cfg.Build.Commit,
		"port", cfg.Server.Port,
	)

	recorder, err := telemetry.New(ctx, cfg, types.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("initializing metrics: %w", err)
	}

	srv, err := buildServer(cfg, logger, recorder)
	if err != nil {
		return err
	}

	if isLambdaEnvironment() {
		logger.Info("running in lambda mode")
		lambda.StartWithOptions(core.NewLambdaAdapter(srv.Handler()).Proxy, lambda.WithContext(ctx))
		return nil
	}

	return srv.ListenAndServe(ctx)
}

// buildServer wires clients, orchestrator and handlers into a mounted server.
func buildServer(cfg *config.Config, logger *slog.Logger, recorder telemetry.Recorder) (*core.Server, error) {
	registry := external.NewClientRegistry(cfg, logger)

	orch := weather.NewOrchestrator(registry.Geocoder, registry.Forecaster, logger,
		weather.WithSummarizer(registry.Summarizer),
		weather.WithMetrics(recorder),
	)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating server: %w", err)
	}
	srv.Metrics = recorder
	srv.Features = map[string]bool{"summary": orch.SummariesEnabled()}
	for _, base := range registry.Critical {
		srv.HealthProbes = append(srv.HealthProbes, base)
	}

	weatherHandler := handlers.NewWeatherHandler(orch, srv.Validator, logger)
	conditionsHandler := handlers.NewConditionsHandler()
	srv.V1RouteRegistrars = append(srv.V1RouteRegistrars,
		weatherHandler.RegisterRoutes,
		conditionsHandler.RegisterRoutes,
	)

	srv.MountRoutes()
	return srv, nil
}

// isLambdaEnvironment reports whether the process runs inside the Lambda
// runtime.
func isLambdaEnvironment() bool {
	_, hasRuntimeAPI := os.LookupEnv("AWS_LAMBDA_RUNTIME_API")
	_, hasFunctionName := os.LookupEnv("AWS_LAMBDA_FUNCTION_NAME")
	return hasRuntimeAPI || hasFunctionName
}

// newLogger creates a JSON slog.Logger at the given level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
