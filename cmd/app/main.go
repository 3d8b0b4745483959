// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"travel-planner-client/internal/application"
	"travel-planner-client/internal/config"
	"travel-planner-client/internal/infra/logging"
	"travel-planner-client/internal/infra/metrics"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (offline fallbacks, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}
	if cfg.Metrics.Enabled {
		metrics.MustRegister()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := application.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build")
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error().Err(err).Msg("close")
		}
	}()

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("stopped with error")
		app.Close()
		os.Exit(1)
	}
	logger.Info().Msg("shutdown complete")
}
