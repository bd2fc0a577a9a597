// package tasks implements the ingestion and categorization passes.
//
// The core abstraction is SyncEngine, which drives one playlist pass
// (fetch, dedup, categorize, persist, record sync) and the backfill pass
// over previously stored but still uncategorized episodes. Categorization
// happens through BatchCategorizer, which owns the per-run throttle and
// quota breaker state.
package tasks

import (
	"github.com/charmbracelet/log"
	"github.com/matienzar/spotify-podcast-extractor/internal/models"
	"github.com/matienzar/spotify-podcast-extractor/internal/services"
)

// EpisodeStore is the slice of the episode repository the engine needs.
type EpisodeStore interface {
	Exists(episodeID, playlistID string) (bool, error)
	Upsert(episode *models.Episode) error
	UpdateCategory(episodeID, playlistID string, category models.Category) error
	ListUncategorized() ([]*models.Episode, error)
	DistinctCategories() ([]string, error)
}

// SyncStore tracks per-playlist sync state.
type SyncStore interface {
	RecordSync(playlistID, name string) error
	LastSynced(playlistID string) (*models.SyncRecord, error)
}

// SyncResult summarizes one playlist pass.
type SyncResult struct {
	PlaylistID   string
	PlaylistName string
	Processed    int // new episodes persisted
	Skipped      int // episodes already in the store
	Failed       int // per-episode fetch or persist failures
	Categorized  int // new episodes that received a category in this pass
}

// BackfillResult summarizes one backfill pass.
type BackfillResult struct {
	Skipped     bool // pass skipped entirely (provider disabled or breaker tripped)
	Pending     int  // uncategorized episodes found
	Categorized int  // episodes that received a category
	Remaining   int  // episodes still uncategorized after the pass
}

// SyncEngine orchestrates playlist ingestion and categorization.
type SyncEngine struct {
	source      services.PodcastSource
	episodes    EpisodeStore
	playlists   SyncStore
	categorizer *BatchCategorizer
	logger      *log.Logger
}

// NewSyncEngine creates a SyncEngine with the provided collaborators.
func NewSyncEngine(source services.PodcastSource, episodes EpisodeStore, playlists SyncStore, categorizer *BatchCategorizer, logger *log.Logger) *SyncEngine {
	return &SyncEngine{
		source:      source,
		episodes:    episodes,
		playlists:   playlists,
		categorizer: categorizer,
		logger:      logger,
	}
}
