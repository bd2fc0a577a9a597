package main

import (
	"context"
	"fmt"

	"github.com/matienzar/spotify-podcast-extractor/internal/formatter"
	"github.com/matienzar/spotify-podcast-extractor/internal/repositories"
	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
	"github.com/urfave/cli/v3"
)

// Sync runs one incremental pass over the configured playlist: fetch new
// episodes, categorize them in a single batch and store everything.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	playlistID := cmd.String("playlist-id")
	if playlistID == "" {
		playlistID = config.Sync.PlaylistID
	}
	if playlistID == "" {
		return fmt.Errorf("%w: set --playlist-id or sync.playlist_id in the config file", shared.ErrMissingArgument)
	}

	source, err := r.buildSource(ctx, config)
	if err != nil {
		return err
	}

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := r.newEngine(source, db, config, cmd.Bool("no-llm"))

	result, err := engine.SyncPlaylist(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	r.logger.Info("sync complete",
		"playlist", result.PlaylistName,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"categorized", result.Categorized)

	// Retry anything still pending from earlier passes while the provider
	// and database are already in hand.
	backfill, err := engine.Backfill(ctx)
	if err != nil {
		r.logger.Error("post-sync backfill failed", "error", err)
	} else if !backfill.Skipped && backfill.Pending > 0 {
		r.logger.Info("post-sync backfill",
			"pending", backfill.Pending,
			"categorized", backfill.Categorized,
			"remaining", backfill.Remaining)
	}

	if err := r.writeJSON(result, true); err != nil {
		return err
	}

	labels := r.labels(config)
	repo := repositories.NewEpisodeRepository(db, labels)

	if stats, err := repo.Stats(); err != nil {
		r.logger.Error("failed to gather statistics", "error", err)
	} else if err := r.printStats(stats); err != nil {
		return err
	}

	if cmd.Bool("export") {
		episodes, err := repo.List(playlistID)
		if err != nil {
			return fmt.Errorf("failed to load episodes for export: %w", err)
		}

		path, err := formatter.WriteExport(episodes, labels, config.Export.Format, "", config.Export.OutputDir, playlistID)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		r.logger.Info("exported episodes", "path", path, "count", len(episodes))
	}

	return nil
}

// Backfill re-attempts categorization for episodes that are still pending
// or previously failed.
func (r *Runner) Backfill(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := r.newEngine(nil, db, config, false)

	result, err := engine.Backfill(ctx)
	if err != nil {
		return fmt.Errorf("backfill failed: %w", err)
	}

	if result.Skipped {
		r.logger.Warn("backfill skipped, categorization unavailable")
		return nil
	}

	r.logger.Info("backfill complete",
		"pending", result.Pending,
		"categorized", result.Categorized,
		"remaining", result.Remaining)

	return r.writeJSON(result, true)
}
