package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
)

func newTestSpotifyService(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewSpotifyService(map[string]string{"access_token": "test-token"})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	if err := svc.Authenticate(context.Background(), map[string]string{"access_token": "test-token"}); err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	svc.baseURL = server.URL
	svc.httpClient = server.Client()

	return svc, server
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("requires some credential", func(t *testing.T) {
		if _, err := NewSpotifyService(map[string]string{}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("access token alone is enough", func(t *testing.T) {
		if _, err := NewSpotifyService(map[string]string{"access_token": "tok"}); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("client credentials are enough", func(t *testing.T) {
		svc, err := NewSpotifyService(map[string]string{"client_id": "id", "client_secret": "secret"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if url := svc.GetAuthURL("state123"); !strings.Contains(url, "state123") {
			t.Errorf("auth URL should carry the state, got %s", url)
		}
	})
}

func TestSpotifyAuthenticate(t *testing.T) {
	t.Run("missing token and code fails", func(t *testing.T) {
		svc, err := NewSpotifyService(map[string]string{"client_id": "id"})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		if err := svc.Authenticate(context.Background(), map[string]string{}); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("requests before authentication fail", func(t *testing.T) {
		svc, err := NewSpotifyService(map[string]string{"client_id": "id"})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		if _, err := svc.GetPlaylist(context.Background(), "pl1"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("access token is exposed after authentication", func(t *testing.T) {
		svc, err := NewSpotifyService(map[string]string{"access_token": "tok"})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}
		if svc.AccessToken() != "" {
			t.Error("token should be empty before Authenticate")
		}
		if err := svc.Authenticate(context.Background(), map[string]string{"access_token": "tok"}); err != nil {
			t.Fatalf("authenticate failed: %v", err)
		}
		if svc.AccessToken() != "tok" {
			t.Errorf("unexpected token %q", svc.AccessToken())
		}
	})
}

func TestSpotifyGetPlaylist(t *testing.T) {
	t.Run("returns playlist metadata", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlists/pl1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			fmt.Fprint(w, `{"id": "pl1", "name": "Mis Podcasts", "tracks": {"total": 7}}`)
		})
		svc, _ := newTestSpotifyService(t, handler)

		playlist, err := svc.GetPlaylist(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("failed to get playlist: %v", err)
		}
		if playlist.Name != "Mis Podcasts" || playlist.Total != 7 {
			t.Errorf("unexpected playlist: %+v", playlist)
		}
	})

	t.Run("maps 401 to token expiry", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
		svc, _ := newTestSpotifyService(t, handler)

		if _, err := svc.GetPlaylist(context.Background(), "pl1"); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("maps other failures to API errors", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		svc, _ := newTestSpotifyService(t, handler)

		if _, err := svc.GetPlaylist(context.Background(), "missing"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestSpotifyPlaylistEpisodes(t *testing.T) {
	t.Run("filters out music tracks and local items", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{
				"items": [
					{"added_at": "2025-06-01T10:00:00Z", "track": {"id": "ep1", "type": "episode"}},
					{"added_at": "2025-06-01T11:00:00Z", "track": {"id": "tr1", "type": "track"}},
					{"added_at": "2025-06-01T12:00:00Z", "track": null},
					{"added_at": "2025-06-02T10:00:00Z", "track": {"id": "ep2", "type": "episode"}}
				],
				"total": 4, "limit": 50, "offset": 0, "next": null
			}`)
		})
		svc, _ := newTestSpotifyService(t, handler)

		episodes, err := svc.PlaylistEpisodes(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("failed to list episodes: %v", err)
		}
		if len(episodes) != 2 {
			t.Fatalf("expected 2 episodes, got %d", len(episodes))
		}
		if episodes[0].EpisodeID != "ep1" || episodes[1].EpisodeID != "ep2" {
			t.Errorf("unexpected episodes: %+v", episodes)
		}
		if episodes[0].AddedAt != "2025-06-01T10:00:00Z" {
			t.Errorf("added_at should be preserved, got %q", episodes[0].AddedAt)
		}
	})

	t.Run("walks every page", func(t *testing.T) {
		var requests []string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests = append(requests, r.URL.RawQuery)
			if r.URL.Query().Get("offset") == "0" {
				next := "next-page"
				fmt.Fprintf(w, `{
					"items": [{"added_at": "2025-06-01T10:00:00Z", "track": {"id": "ep1", "type": "episode"}}],
					"total": 2, "limit": 50, "offset": 0, "next": %q
				}`, next)
				return
			}
			fmt.Fprint(w, `{
				"items": [{"added_at": "2025-06-02T10:00:00Z", "track": {"id": "ep2", "type": "episode"}}],
				"total": 2, "limit": 50, "offset": 50, "next": null
			}`)
		})
		svc, _ := newTestSpotifyService(t, handler)

		episodes, err := svc.PlaylistEpisodes(context.Background(), "pl1")
		if err != nil {
			t.Fatalf("failed to list episodes: %v", err)
		}
		if len(episodes) != 2 {
			t.Fatalf("expected 2 episodes across pages, got %d", len(episodes))
		}
		if len(requests) != 2 {
			t.Errorf("expected 2 page requests, got %d", len(requests))
		}
	})
}

func TestSpotifyGetEpisode(t *testing.T) {
	t.Run("returns episode detail", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/episodes/ep1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			fmt.Fprint(w, `{
				"id": "ep1",
				"name": "Historia de Roma",
				"description": "Un repaso al imperio",
				"duration_ms": 1800000,
				"external_urls": {"spotify": "https://open.spotify.com/episode/ep1"},
				"show": {"id": "sh1", "name": "Historia FM"}
			}`)
		})
		svc, _ := newTestSpotifyService(t, handler)

		detail, err := svc.GetEpisode(context.Background(), "ep1")
		if err != nil {
			t.Fatalf("failed to get episode: %v", err)
		}
		if detail.Title != "Historia de Roma" || detail.ShowName != "Historia FM" {
			t.Errorf("unexpected detail: %+v", detail)
		}
		if detail.DurationMS != 1800000 {
			t.Errorf("unexpected duration: %d", detail.DurationMS)
		}
	})

	t.Run("falls back to the HTML description", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"id": "ep1", "name": "Sin descripción", "html_description": "<p>Solo HTML</p>"}`)
		})
		svc, _ := newTestSpotifyService(t, handler)

		detail, err := svc.GetEpisode(context.Background(), "ep1")
		if err != nil {
			t.Fatalf("failed to get episode: %v", err)
		}
		if detail.Description != "<p>Solo HTML</p>" {
			t.Errorf("expected HTML fallback, got %q", detail.Description)
		}
	})
}
