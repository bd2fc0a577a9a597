package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matienzar/spotify-podcast-extractor/internal/services"
	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, then initializes the
// database and runs migrations. With --reset the schema is dropped and
// rebuilt, destroying all stored episodes.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if cmd.Bool("reset") {
		r.logger.Warn("resetting database schema, all stored episodes will be lost")
		if err := shared.ResetSchema(db); err != nil {
			return fmt.Errorf("failed to reset schema: %w", err)
		}
	} else {
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// AuthURL prints the Spotify authorization URL for the configured client.
func (r *Runner) AuthURL(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	spotify := config.Credentials.Spotify

	if spotify.ClientID == "" || spotify.ClientSecret == "" {
		return fmt.Errorf("%w: set credentials.spotify.client_id and client_secret in the config file", shared.ErrMissingCredentials)
	}

	svc, err := services.NewSpotifyService(map[string]string{
		"client_id":     spotify.ClientID,
		"client_secret": spotify.ClientSecret,
		"redirect_uri":  spotify.RedirectURI,
	})
	if err != nil {
		return err
	}

	state := shared.GenerateID()
	if err := r.writePlain("%s\n", svc.GetAuthURL(state)); err != nil {
		return err
	}

	r.logger.Info("open the URL in a browser, then run: podex auth exchange --code <code>")
	return nil
}

// AuthExchange trades an authorization code for an access token and
// prints it so the user can store it in the config file.
func (r *Runner) AuthExchange(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	spotify := config.Credentials.Spotify

	if spotify.ClientID == "" || spotify.ClientSecret == "" {
		return fmt.Errorf("%w: set credentials.spotify.client_id and client_secret in the config file", shared.ErrMissingCredentials)
	}

	credentials := map[string]string{
		"client_id":     spotify.ClientID,
		"client_secret": spotify.ClientSecret,
		"redirect_uri":  spotify.RedirectURI,
		"auth_code":     cmd.String("code"),
	}

	svc, err := services.NewSpotifyService(credentials)
	if err != nil {
		return err
	}

	if err := svc.Authenticate(ctx, credentials); err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	token := svc.AccessToken()
	if token == "" {
		return shared.ErrAuthFailed
	}

	if err := r.writePlain("%s\n", token); err != nil {
		return err
	}

	r.logger.Info("store the token under credentials.spotify.access_token in the config file")
	return nil
}
