// package repositories provides the persistence layer over SQLite.
//
// EpisodeRepository owns the podcasts table (uniqueness on the
// (id, playlist_id) pair, category updates, uncategorized queries) and
// PlaylistRepository owns the playlists sync-tracking table. Both work with
// hand-written SQL over database/sql; category sentinel strings are
// translated to and from [models.Category] here and nowhere else.
package repositories

import (
	"github.com/matienzar/spotify-podcast-extractor/internal/models"
)

// DefaultLabels returns the storage labels used when none are configured.
func DefaultLabels() models.Labels {
	return models.Labels{
		Uncategorized: "Sin categorizar",
		Error:         "Error categorización",
	}
}
