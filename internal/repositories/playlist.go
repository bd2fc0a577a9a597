package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/matienzar/spotify-podcast-extractor/internal/models"
)

// PlaylistRepository tracks per-playlist synchronization state.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// RecordSync upserts the sync record for a playlist with the current time.
// Called at the end of every successful sync pass.
func (r *PlaylistRepository) RecordSync(playlistID, name string) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO playlists (id, name, last_synced_at)
		VALUES (?, ?, ?)
	`, playlistID, name, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record sync: %w", err)
	}
	return nil
}

// LastSynced returns the sync record for a playlist, or nil if the playlist
// has never been synced.
func (r *PlaylistRepository) LastSynced(playlistID string) (*models.SyncRecord, error) {
	var (
		id       string
		name     sql.NullString
		syncedAt time.Time
	)

	err := r.db.QueryRow(
		"SELECT id, name, last_synced_at FROM playlists WHERE id = ?", playlistID,
	).Scan(&id, &name, &syncedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync record: %w", err)
	}

	return &models.SyncRecord{PlaylistID: id, Name: name.String, LastSyncedAt: syncedAt}, nil
}

// List returns all sync records, most recently synced first.
func (r *PlaylistRepository) List() ([]*models.SyncRecord, error) {
	rows, err := r.db.Query("SELECT id, name, last_synced_at FROM playlists ORDER BY last_synced_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sync records: %w", err)
	}
	defer rows.Close()

	var records []*models.SyncRecord
	for rows.Next() {
		var (
			id       string
			name     sql.NullString
			syncedAt time.Time
		)
		if err := rows.Scan(&id, &name, &syncedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync record: %w", err)
		}
		records = append(records, &models.SyncRecord{PlaylistID: id, Name: name.String, LastSyncedAt: syncedAt})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
