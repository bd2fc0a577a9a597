package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/matienzar/spotify-podcast-extractor/internal/models"
)

// EpisodeRepository handles persistence for podcast episodes.
//
// Episodes are keyed by (id, playlist_id). Rows are never deleted
// individually; Upsert replaces whole rows and UpdateCategory mutates only
// the category column.
type EpisodeRepository struct {
	db     *sql.DB
	labels models.Labels
}

// NewEpisodeRepository creates a new EpisodeRepository with the given
// database connection and sentinel labels.
func NewEpisodeRepository(db *sql.DB, labels models.Labels) *EpisodeRepository {
	if labels.Uncategorized == "" {
		labels = DefaultLabels()
	}
	return &EpisodeRepository{db: db, labels: labels}
}

// Labels returns the sentinel labels this repository serializes with.
func (r *EpisodeRepository) Labels() models.Labels {
	return r.labels
}

// Exists reports whether an episode row with the composite key is present.
//
// Errors are propagated instead of being folded into false: a false
// negative here would let a duplicate row past the dedup filter.
func (r *EpisodeRepository) Exists(episodeID, playlistID string) (bool, error) {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM podcasts WHERE id = ? AND playlist_id = ?", episodeID, playlistID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check episode existence: %w", err)
	}
	return true, nil
}

// Upsert inserts or fully replaces the row for (episode.ID, episode.PlaylistID)
// and stamps ProcessedAt with the current time. Replace semantics cover the
// category column too: writing a pending episode over a categorized row
// resets the category.
func (r *EpisodeRepository) Upsert(episode *models.Episode) error {
	now := time.Now().UTC()
	episode.ProcessedAt = now

	query := `
		INSERT OR REPLACE INTO podcasts
		(id, playlist_id, title, description, duration_minutes, added_at, url, category, show_name, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		episode.ID,
		episode.PlaylistID,
		episode.Title,
		episode.Description,
		episode.DurationMinutes,
		episode.AddedAt,
		episode.URL,
		episode.Category.Encode(r.labels),
		episode.ShowName,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert episode: %w", err)
	}

	return nil
}

// UpdateCategory mutates only the category column of an existing row.
func (r *EpisodeRepository) UpdateCategory(episodeID, playlistID string, category models.Category) error {
	result, err := r.db.Exec(
		"UPDATE podcasts SET category = ? WHERE id = ? AND playlist_id = ?",
		category.Encode(r.labels), episodeID, playlistID,
	)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("episode not found: %s in playlist %s", episodeID, playlistID)
	}

	return nil
}

// ListUncategorized returns all episodes still pending categorization,
// most recently processed first. Rows in the failed state are included:
// both are retried by the next backfill pass.
func (r *EpisodeRepository) ListUncategorized() ([]*models.Episode, error) {
	query := `
		SELECT id, playlist_id, title, description, duration_minutes, added_at, url, category, show_name, processed_at
		FROM podcasts
		WHERE category IN (?, ?, '')
		ORDER BY processed_at DESC
	`

	rows, err := r.db.Query(query, r.labels.Uncategorized, r.labels.Error)
	if err != nil {
		return nil, fmt.Errorf("failed to query uncategorized episodes: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// DistinctCategories returns all category values currently assigned,
// excluding both sentinel labels and empty strings. The result guides
// future categorization prompts toward reuse.
func (r *EpisodeRepository) DistinctCategories() ([]string, error) {
	query := `
		SELECT DISTINCT category
		FROM podcasts
		WHERE category NOT IN (?, ?, '')
		ORDER BY category
	`

	rows, err := r.db.Query(query, r.labels.Uncategorized, r.labels.Error)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}

// List returns all episodes ordered by playlist added date descending.
// An empty playlistID returns every row.
func (r *EpisodeRepository) List(playlistID string) ([]*models.Episode, error) {
	query := `
		SELECT id, playlist_id, title, description, duration_minutes, added_at, url, category, show_name, processed_at
		FROM podcasts
	`
	args := []any{}

	if playlistID != "" {
		query += " WHERE playlist_id = ?"
		args = append(args, playlistID)
	}

	query += " ORDER BY added_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// ResetCategories rewrites every row's category to the pending sentinel
// without touching any other field. Returns the number of rows updated.
func (r *EpisodeRepository) ResetCategories() (int64, error) {
	result, err := r.db.Exec("UPDATE podcasts SET category = ?", r.labels.Uncategorized)
	if err != nil {
		return 0, fmt.Errorf("failed to reset categories: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

// Stats summarizes the store: totals, pending count and top categories.
func (r *EpisodeRepository) Stats() (*models.Stats, error) {
	stats := &models.Stats{}

	err := r.db.QueryRow("SELECT COUNT(*) FROM podcasts").Scan(&stats.TotalEpisodes)
	if err != nil {
		return nil, fmt.Errorf("failed to count episodes: %w", err)
	}

	err = r.db.QueryRow(
		"SELECT COUNT(DISTINCT category) FROM podcasts WHERE category NOT IN (?, ?, '')",
		r.labels.Uncategorized, r.labels.Error,
	).Scan(&stats.TotalCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}

	err = r.db.QueryRow(
		"SELECT COUNT(*) FROM podcasts WHERE category IN (?, ?, '')",
		r.labels.Uncategorized, r.labels.Error,
	).Scan(&stats.Uncategorized)
	if err != nil {
		return nil, fmt.Errorf("failed to count uncategorized episodes: %w", err)
	}

	err = r.db.QueryRow("SELECT COUNT(DISTINCT playlist_id) FROM podcasts").Scan(&stats.TotalPlaylists)
	if err != nil {
		return nil, fmt.Errorf("failed to count playlists: %w", err)
	}

	rows, err := r.db.Query(`
		SELECT category, COUNT(*) AS count
		FROM podcasts
		WHERE category NOT IN (?, ?, '')
		GROUP BY category
		ORDER BY count DESC
		LIMIT 10
	`, r.labels.Uncategorized, r.labels.Error)
	if err != nil {
		return nil, fmt.Errorf("failed to query top categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cc models.CategoryCount
		if err := rows.Scan(&cc.Name, &cc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.TopCategories = append(stats.TopCategories, cc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return stats, nil
}

// collect scans all rows into episodes.
func (r *EpisodeRepository) collect(rows *sql.Rows) ([]*models.Episode, error) {
	var episodes []*models.Episode
	for rows.Next() {
		episode, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return episodes, nil
}

// scanRow scans a row from [sql.Rows] into a [models.Episode].
func (r *EpisodeRepository) scanRow(rows *sql.Rows) (*models.Episode, error) {
	var (
		id          string
		playlistID  string
		title       string
		description sql.NullString
		duration    float64
		addedAt     sql.NullString
		url         sql.NullString
		category    string
		showName    sql.NullString
		processedAt time.Time
	)

	err := rows.Scan(&id, &playlistID, &title, &description, &duration, &addedAt, &url, &category, &showName, &processedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan episode: %w", err)
	}

	return &models.Episode{
		ID:              id,
		PlaylistID:      playlistID,
		Title:           title,
		Description:     description.String,
		DurationMinutes: duration,
		AddedAt:         addedAt.String,
		URL:             url.String,
		ShowName:        showName.String,
		Category:        models.DecodeCategory(category, r.labels),
		ProcessedAt:     processedAt,
	}, nil
}
