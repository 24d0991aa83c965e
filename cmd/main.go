package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/vorplay/internal/confirm"
	"github.com/desertthunder/vorplay/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("VORPLAY_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config, err := shared.ResolveConfig(configPath)
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}
	if err := shared.SetLogLevel(logger, config.Log.Level); err != nil {
		logger.Warn("ignoring log level", "err", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "vorplay",
		Usage:    "Review tracks, curate playlists and follow listeners from the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.Run(ctx, os.Args)
	stop()
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close local storage", "err", cerr)
	}

	switch {
	case err == nil:
	case errors.Is(err, confirm.ErrDeclined):
		logger.Info("cancelled")
	default:
		logger.Fatal(shared.UserMessage(err), "err", err)
	}
}
