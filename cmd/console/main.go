// File: cmd/console/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"travel-planner-client/internal/application"
	"travel-planner-client/internal/config"
	"travel-planner-client/internal/infra/console"
	"travel-planner-client/internal/infra/logging"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "run without a backend using the offline assistant")
	plain := flag.Bool("plain", false, "disable terminal styling")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	// stdout belongs to the conversation.
	logger := logging.NewWithWriter(cfg.Log, cfg.Runtime.Dev, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := application.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build")
	}
	defer app.Close()

	repl := console.New(os.Stdin, os.Stdout, console.Deps{
		Assistant:   app.Assistant,
		Bookings:    app.Bookings,
		Translator:  app.Translator,
		Suggestions: cfg.Chat.Suggestions,
		Styled:      !*plain,
		Logger:      logger,
	})
	if err := repl.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("console")
	}
}
