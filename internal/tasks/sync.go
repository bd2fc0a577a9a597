package tasks

import (
	"context"
	"fmt"

	"github.com/matienzar/spotify-podcast-extractor/internal/models"
	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
)

// SyncPlaylist runs one incremental pass over a playlist: fetch the item
// listing, skip episodes already stored, fetch detail for the new ones,
// categorize the pending set in a single batch and persist everything.
// The playlist sync record is only updated after a successful pass.
//
// A single episode's fetch or persist failure is logged and skipped; an
// I/O error from the store's existence check aborts the pass, since a
// false "not found" would create duplicate rows.
func (e *SyncEngine) SyncPlaylist(ctx context.Context, playlistID string) (*SyncResult, error) {
	logger := shared.WithLogger(e.logger, "run", shared.GenerateID(), "playlist", playlistID)

	if prev, err := e.playlists.LastSynced(playlistID); err != nil {
		logger.Error("failed to read last sync date", "error", err)
	} else if prev != nil {
		logger.Info("last synchronized", "at", prev.LastSyncedAt)
	}

	playlist, err := e.source.GetPlaylist(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	logger.Info("processing playlist", "name", playlist.Name, "items", playlist.Total)

	items, err := e.source.PlaylistEpisodes(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlist episodes: %w", err)
	}

	result := &SyncResult{PlaylistID: playlistID, PlaylistName: playlist.Name}

	var pending []*models.Episode
	for _, item := range items {
		exists, err := e.episodes.Exists(item.EpisodeID, playlistID)
		if err != nil {
			return nil, fmt.Errorf("existence check failed for episode %s: %w", item.EpisodeID, err)
		}
		if exists {
			result.Skipped++
			continue
		}

		detail, err := e.source.GetEpisode(ctx, item.EpisodeID)
		if err != nil {
			logger.Error("failed to fetch episode, skipping", "episode", item.EpisodeID, "error", err)
			result.Failed++
			continue
		}

		pending = append(pending, &models.Episode{
			ID:              detail.ID,
			PlaylistID:      playlistID,
			Title:           detail.Title,
			Description:     detail.Description,
			DurationMinutes: float64(detail.DurationMS) / 60000,
			AddedAt:         item.AddedAt,
			URL:             detail.URL,
			ShowName:        detail.ShowName,
			Category:        models.PendingCategory(),
		})
	}

	if len(pending) > 0 && e.categorizer.Enabled() {
		existing, err := e.episodes.DistinctCategories()
		if err != nil {
			logger.Error("failed to load existing categories", "error", err)
			existing = nil
		}
		logger.Info("categorizing new episodes", "count", len(pending), "existing_categories", len(existing))

		mapping := e.categorizer.CategorizeBatch(ctx, toPendingEpisodes(pending), existing)
		for _, episode := range pending {
			if raw, ok := mapping[episode.ID]; ok {
				episode.Category = models.AssignedCategory(raw)
				result.Categorized++
			}
		}
	}

	for _, episode := range pending {
		if err := e.episodes.Upsert(episode); err != nil {
			logger.Error("failed to persist episode", "episode", episode.ID, "error", err)
			result.Failed++
			continue
		}
		result.Processed++
	}

	if err := e.playlists.RecordSync(playlistID, playlist.Name); err != nil {
		return result, fmt.Errorf("failed to record sync: %w", err)
	}

	logger.Info("playlist pass complete",
		"processed", result.Processed, "skipped", result.Skipped,
		"failed", result.Failed, "categorized", result.Categorized)

	return result, nil
}

// Backfill re-attempts categorization for stored episodes still pending.
// One batch covers the entire pending list; episodes the provider leaves
// out of its response stay pending and are retried on the next call.
func (e *SyncEngine) Backfill(ctx context.Context) (*BackfillResult, error) {
	logger := shared.WithLogger(e.logger, "run", shared.GenerateID())

	if e.categorizer.Tripped() {
		logger.Info("skipping backfill, quota exhausted this session")
		return &BackfillResult{Skipped: true}, nil
	}
	if !e.categorizer.Enabled() {
		logger.Warn("skipping backfill, categorization not configured")
		return &BackfillResult{Skipped: true}, nil
	}

	uncategorized, err := e.episodes.ListUncategorized()
	if err != nil {
		return nil, fmt.Errorf("failed to list uncategorized episodes: %w", err)
	}

	result := &BackfillResult{Pending: len(uncategorized)}
	if len(uncategorized) == 0 {
		logger.Info("no episodes pending categorization")
		return result, nil
	}

	existing, err := e.episodes.DistinctCategories()
	if err != nil {
		logger.Error("failed to load existing categories", "error", err)
		existing = nil
	}

	logger.Info("backfilling categories", "pending", len(uncategorized), "existing_categories", len(existing))

	mapping := e.categorizer.CategorizeBatch(ctx, toPendingEpisodes(uncategorized), existing)

	for _, episode := range uncategorized {
		raw, ok := mapping[episode.ID]
		if !ok {
			continue
		}

		category := models.AssignedCategory(raw)
		if err := e.episodes.UpdateCategory(episode.ID, episode.PlaylistID, category); err != nil {
			logger.Error("failed to update category", "episode", episode.ID, "error", err)
			continue
		}
		if category.Status == models.StatusAssigned {
			result.Categorized++
		}
	}

	result.Remaining = result.Pending - result.Categorized
	logger.Info("backfill complete", "categorized", result.Categorized, "remaining", result.Remaining)

	return result, nil
}

// toPendingEpisodes projects stored episodes onto the categorizer input.
func toPendingEpisodes(episodes []*models.Episode) []PendingEpisode {
	out := make([]PendingEpisode, 0, len(episodes))
	for _, ep := range episodes {
		out = append(out, PendingEpisode{
			ID:          ep.ID,
			Title:       ep.Title,
			Description: ep.Description,
			ShowName:    ep.ShowName,
		})
	}
	return out
}
