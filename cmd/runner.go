package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/matienzar/spotify-podcast-extractor/internal/models"
	"github.com/matienzar/spotify-podcast-extractor/internal/repositories"
	"github.com/matienzar/spotify-podcast-extractor/internal/services"
	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
	"github.com/matienzar/spotify-podcast-extractor/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer

	// source overrides the Spotify client in tests
	source services.PodcastSource
	// provider overrides the categorization provider in tests
	provider services.Categorizer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config   *shared.Config
	Logger   *log.Logger
	Output   io.Writer
	Source   services.PodcastSource
	Provider services.Categorizer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:   opts.Config,
		logger:   opts.Logger,
		output:   opts.Output,
		source:   opts.Source,
		provider: opts.Provider,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, backfillCommand, exportCommand, statsCommand, resetCategoriesCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the --config flag, falling back to the runner's
// current config when the file does not exist.
func (r *Runner) loadConfig(cmd *cli.Command) *shared.Config {
	path := cmd.String("config")
	if path == "" {
		return r.config
	}

	if _, err := os.Stat(path); err != nil {
		return r.config
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		return r.config
	}

	return config
}

// openDatabase opens the configured SQLite database and applies migrations.
func (r *Runner) openDatabase(config *shared.Config) (*sql.DB, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// labels returns the configured sentinel labels.
func (r *Runner) labels(config *shared.Config) models.Labels {
	return models.Labels{
		Uncategorized: config.Categorization.UncategorizedLabel,
		Error:         config.Categorization.ErrorLabel,
	}
}

// buildSource creates and authenticates the Spotify client. Missing
// credentials surface before any ingestion starts.
func (r *Runner) buildSource(ctx context.Context, config *shared.Config) (services.PodcastSource, error) {
	if r.source != nil {
		return r.source, nil
	}

	spotify := config.Credentials.Spotify
	credentials := map[string]string{
		"client_id":     spotify.ClientID,
		"client_secret": spotify.ClientSecret,
		"redirect_uri":  spotify.RedirectURI,
		"access_token":  spotify.AccessToken,
	}

	svc, err := services.NewSpotifyService(credentials)
	if err != nil {
		return nil, err
	}

	if spotify.AccessToken == "" {
		return nil, fmt.Errorf("%w: set credentials.spotify.access_token (see the auth command)", shared.ErrMissingCredentials)
	}

	if err := svc.Authenticate(ctx, credentials); err != nil {
		return nil, err
	}

	return svc, nil
}

// buildProvider picks the categorization provider: the Gemini client when
// configured and wanted, the no-op variant otherwise.
func (r *Runner) buildProvider(config *shared.Config, noLLM bool) services.Categorizer {
	if noLLM {
		r.logger.Info("automatic categorization disabled for this run")
		return services.NoopCategorizer{}
	}

	if r.provider != nil {
		return r.provider
	}

	if !config.Categorization.Enabled {
		r.logger.Info("automatic categorization disabled")
		return services.NoopCategorizer{}
	}

	gemini, err := services.NewGeminiService(config.Credentials.Gemini.APIKey, config.Credentials.Gemini.Model)
	if err != nil {
		r.logger.Warn("gemini not configured, continuing without categorization", "error", err)
		return services.NoopCategorizer{}
	}

	r.logger.Info("gemini categorization enabled",
		"model", config.Credentials.Gemini.Model,
		"rpm_limit", config.Categorization.RPMLimit,
		"max_categories", config.Categorization.MaxCategories)

	return gemini
}

// newEngine wires a SyncEngine over an open database.
func (r *Runner) newEngine(source services.PodcastSource, db *sql.DB, config *shared.Config, noLLM bool) *tasks.SyncEngine {
	episodes := repositories.NewEpisodeRepository(db, r.labels(config))
	playlists := repositories.NewPlaylistRepository(db)
	categorizer := tasks.NewBatchCategorizer(r.buildProvider(config, noLLM), config.Categorization, r.logger)

	return tasks.NewSyncEngine(source, episodes, playlists, categorizer, r.logger)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
