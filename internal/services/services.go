// package services defines interfaces for the external collaborators
//
// Spotify (playlist source), Gemini (categorization provider)
package services

import (
	"context"
)

// PodcastSource defines the playlist-platform collaborator: playlist
// metadata, episode listing and episode detail. Pagination is handled
// inside implementations.
type PodcastSource interface {
	// Authenticate performs OAuth or token authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// GetPlaylist retrieves playlist metadata by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error)

	// PlaylistEpisodes retrieves all episode items in a playlist, walking
	// every page. Non-episode items (music tracks) are filtered out.
	PlaylistEpisodes(ctx context.Context, playlistID string) ([]PlaylistEpisode, error)

	// GetEpisode retrieves full episode detail by episode ID.
	GetEpisode(ctx context.Context, episodeID string) (*EpisodeDetail, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// Categorizer is the capability interface for the categorization provider.
// The real implementation wraps the Gemini API; [NoopCategorizer] stands in
// when no credentials are configured.
type Categorizer interface {
	// GenerateContent sends a free-form prompt and returns the raw text
	// response. Quota exhaustion is reported as [shared.ErrQuotaExhausted].
	GenerateContent(ctx context.Context, prompt string) (string, error)

	// Enabled reports whether the provider can actually serve requests.
	// Callers skip rate limiting and prompting entirely when false.
	Enabled() bool

	// Name returns the provider name (e.g., "Gemini")
	Name() string
}

// Playlist represents playlist metadata from the source service.
type Playlist struct {
	ID          string
	Name        string
	Description string
	Total       int // total items in the playlist, episodes and tracks alike
}

// PlaylistEpisode represents one episode entry within a playlist.
type PlaylistEpisode struct {
	EpisodeID string
	AddedAt   string
}

// EpisodeDetail represents full episode metadata from the source service.
type EpisodeDetail struct {
	ID          string
	Title       string
	Description string
	DurationMS  int
	URL         string
	ShowName    string
}

// NoopCategorizer is the disabled variant of [Categorizer]. Injected when
// no API key is configured or categorization is turned off, so callers
// never branch on credential presence.
type NoopCategorizer struct{}

func (NoopCategorizer) GenerateContent(ctx context.Context, prompt string) (string, error) {
	return "", nil
}

func (NoopCategorizer) Enabled() bool { return false }

func (NoopCategorizer) Name() string { return "noop" }
