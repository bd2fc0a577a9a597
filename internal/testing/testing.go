// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/matienzar/spotify-podcast-extractor/internal/services"
)

// MockSource is a test double for [services.PodcastSource]
type MockSource struct {
	Playlist     *services.Playlist
	Items        []services.PlaylistEpisode
	Episodes     map[string]*services.EpisodeDetail
	PlaylistErr  error
	ItemsErr     error
	EpisodeErrs  map[string]error
	EpisodeCalls int
}

func (m *MockSource) Authenticate(ctx context.Context, credentials map[string]string) error {
	return nil
}

func (m *MockSource) GetPlaylist(ctx context.Context, playlistID string) (*services.Playlist, error) {
	if m.PlaylistErr != nil {
		return nil, m.PlaylistErr
	}
	if m.Playlist != nil {
		return m.Playlist, nil
	}
	return &services.Playlist{ID: playlistID, Name: "Test Playlist"}, nil
}

func (m *MockSource) PlaylistEpisodes(ctx context.Context, playlistID string) ([]services.PlaylistEpisode, error) {
	if m.ItemsErr != nil {
		return nil, m.ItemsErr
	}
	return m.Items, nil
}

func (m *MockSource) GetEpisode(ctx context.Context, episodeID string) (*services.EpisodeDetail, error) {
	m.EpisodeCalls++
	if err, ok := m.EpisodeErrs[episodeID]; ok {
		return nil, err
	}
	if detail, ok := m.Episodes[episodeID]; ok {
		return detail, nil
	}
	return &services.EpisodeDetail{ID: episodeID, Title: "Episode " + episodeID}, nil
}

func (m *MockSource) Name() string { return "mock" }

// MockCategorizer is a test double for [services.Categorizer] that
// records every prompt it receives.
type MockCategorizer struct {
	Response string
	Err      error
	Disabled bool
	Calls    int
	Prompts  []string
}

func (m *MockCategorizer) GenerateContent(ctx context.Context, prompt string) (string, error) {
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func (m *MockCategorizer) Enabled() bool { return !m.Disabled }

func (m *MockCategorizer) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
