package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/matienzar/spotify-podcast-extractor/internal/formatter"
	"github.com/matienzar/spotify-podcast-extractor/internal/models"
	"github.com/matienzar/spotify-podcast-extractor/internal/repositories"
	"github.com/matienzar/spotify-podcast-extractor/internal/ui"
	"github.com/urfave/cli/v3"
)

// Export writes stored episodes to CSV, JSON or Markdown. Works entirely
// from the local database, no Spotify credentials needed.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	playlistID := cmd.String("playlist-id")
	format := cmd.String("format")
	if format == "" {
		format = config.Export.Format
	}

	labels := r.labels(config)
	repo := repositories.NewEpisodeRepository(db, labels)

	episodes, err := repo.List(playlistID)
	if err != nil {
		return fmt.Errorf("failed to load episodes: %w", err)
	}

	if len(episodes) == 0 {
		r.logger.Warn("no stored episodes to export")
		return nil
	}

	path, err := formatter.WriteExport(episodes, labels, format, cmd.String("output"), config.Export.OutputDir, playlistID)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.logger.Info("exported episodes", "path", path, "count", len(episodes), "format", format)
	return r.writePlain("%s\n", path)
}

// Stats prints episode and category statistics from the local database.
func (r *Runner) Stats(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewEpisodeRepository(db, r.labels(config))
	stats, err := repo.Stats()
	if err != nil {
		return fmt.Errorf("failed to gather statistics: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	return r.printStats(stats)
}

// printStats renders the stats summary and top-category tables.
func (r *Runner) printStats(stats *models.Stats) error {
	if err := r.writePlain("%s\n", ui.Styles.Title.Render("Podcast database")); err != nil {
		return err
	}

	summary := table.NewWriter()
	summary.SetStyle(table.StyleRounded)
	summary.AppendRows([]table.Row{
		{"Episodes", stats.TotalEpisodes},
		{"Categories", stats.TotalCategories},
		{"Uncategorized", stats.Uncategorized},
		{"Playlists", stats.TotalPlaylists},
	})
	if err := r.writePlain("%s\n", summary.Render()); err != nil {
		return err
	}

	if len(stats.TopCategories) == 0 {
		return nil
	}

	top := table.NewWriter()
	top.SetStyle(table.StyleRounded)
	top.AppendHeader(table.Row{"Category", "Episodes"})
	top.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	for _, c := range stats.TopCategories {
		top.AppendRow(table.Row{c.Name, strconv.Itoa(c.Count)})
	}

	return r.writePlain("%s\n", top.Render())
}

// ResetCategories rewrites every stored episode back to uncategorized
// without deleting any episodes.
func (r *Runner) ResetCategories(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewEpisodeRepository(db, r.labels(config))
	affected, err := repo.ResetCategories()
	if err != nil {
		return fmt.Errorf("failed to reset categories: %w", err)
	}

	r.logger.Info("categories reset", "episodes", affected)
	return r.writePlain("%s\n", ui.Styles.OK.Render(fmt.Sprintf("Reset %d episodes", affected)))
}
