// Spotify API implementation of [PodcastSource]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Outbound request pacing for the Spotify Web API. Detail fetches
	// during a sync pass go through this limiter.
	spotifyRequestsPerSecond = 5
)

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyShow represents the show a podcast episode belongs to.
type SpotifyShow struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
}

// SpotifyEpisode represents a Spotify podcast episode.
type SpotifyEpisode struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	HTMLDescription string       `json:"html_description"`
	DurationMS      int          `json:"duration_ms"`
	ReleaseDate     string       `json:"release_date"`
	ExternalURLs    externalURLs `json:"external_urls"`
	Show            SpotifyShow  `json:"show"`
	Type            string       `json:"type"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Tracks      struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// SpotifyPlaylistItem represents one item in a playlist. The track object
// is an episode when Type is "episode" and a music track otherwise.
type SpotifyPlaylistItem struct {
	AddedAt string `json:"added_at"`
	Track   *struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"track"`
}

// SpotifyPaginatedItems represents a paginated page of playlist items.
type SpotifyPaginatedItems struct {
	Items  []SpotifyPlaylistItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
	Next   *string               `json:"next"`
}

// SpotifyService implements the [PodcastSource] interface for Spotify API
// interactions. Uses [oauth2] for authentication and paces outbound
// requests with a [rate.Limiter].
type SpotifyService struct {
	baseURL    string
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		if credentials["access_token"] == "" {
			return nil, fmt.Errorf("%w: need access_token or client_id/client_secret", shared.ErrMissingCredentials)
		}
	}

	redirectURI := credentials["redirect_uri"]
	if redirectURI == "" {
		redirectURI = "https://example.com/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: credentials["client_secret"],
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		baseURL:    spotifyBaseURL,
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(spotifyRequestsPerSecond), 1),
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either
// an "access_token" or "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// AccessToken returns the current token, or an empty string before Authenticate.
func (s *SpotifyService) AccessToken() string {
	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// doRequest performs an authenticated, rate-limited GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result interface{}) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: status %d", shared.ErrTokenExpired, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Playlist retrieves the raw playlist object by ID.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*SpotifyPlaylist, error) {
	var playlist SpotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, endpoint, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistItems retrieves one page of playlist items.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*SpotifyPaginatedItems, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?additional_types=track,episode&limit=%d&offset=%d",
		url.PathEscape(playlistID), limit, offset)

	var page SpotifyPaginatedItems
	if err := s.doRequest(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// Episode retrieves the raw episode object by ID.
func (s *SpotifyService) Episode(ctx context.Context, episodeID string) (*SpotifyEpisode, error) {
	var episode SpotifyEpisode
	endpoint := fmt.Sprintf("/episodes/%s", url.PathEscape(episodeID))
	if err := s.doRequest(ctx, endpoint, &episode); err != nil {
		return nil, err
	}
	return &episode, nil
}

// PodcastSource interface implementation

// GetPlaylist retrieves playlist metadata by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	sp, err := s.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	return &Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		Total:       sp.Tracks.Total,
	}, nil
}

// PlaylistEpisodes walks every page of playlist items and returns the
// episode entries. Music tracks and unplayable (nil-track) items are
// skipped.
func (s *SpotifyService) PlaylistEpisodes(ctx context.Context, playlistID string) ([]PlaylistEpisode, error) {
	var episodes []PlaylistEpisode
	limit := 50
	offset := 0

	for {
		page, err := s.PlaylistItems(ctx, playlistID, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			if item.Track == nil || item.Track.Type != "episode" {
				continue
			}
			episodes = append(episodes, PlaylistEpisode{
				EpisodeID: item.Track.ID,
				AddedAt:   item.AddedAt,
			})
		}

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return episodes, nil
}

// GetEpisode retrieves full episode detail by episode ID. Falls back to the
// HTML description when the plain one is empty, as some shows only publish
// the former.
func (s *SpotifyService) GetEpisode(ctx context.Context, episodeID string) (*EpisodeDetail, error) {
	ep, err := s.Episode(ctx, episodeID)
	if err != nil {
		return nil, err
	}

	description := ep.Description
	if description == "" {
		description = ep.HTMLDescription
	}

	return &EpisodeDetail{
		ID:          ep.ID,
		Title:       ep.Name,
		Description: description,
		DurationMS:  ep.DurationMS,
		URL:         ep.ExternalURLs.Spotify,
		ShowName:    ep.Show.Name,
	}, nil
}
