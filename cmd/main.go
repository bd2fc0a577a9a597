package main

import (
	"context"
	"errors"
	"os"

	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "podex",
		Usage:    "Extract podcast episodes from Spotify playlists with automatic categorization",
		Version:  "1.0.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrMissingCredentials) {
			logger.Error("missing credentials, check config.toml", "error", err)
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
