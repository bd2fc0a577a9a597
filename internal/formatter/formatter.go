// package formatter provides functions to export stored episodes to various formats (CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/matienzar/spotify-podcast-extractor/internal/models"
	"github.com/matienzar/spotify-podcast-extractor/internal/shared"
)

// ExportToCSV converts episodes to CSV with columns: ID, Playlist, Title, Show, Category, Duration (min), Added, URL, Processed
func ExportToCSV(episodes []*models.Episode, labels models.Labels) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Playlist", "Title", "Show", "Category", "Duration (min)", "Added", "URL", "Processed"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, ep := range episodes {
		record := []string{
			ep.ID,
			ep.PlaylistID,
			ep.Title,
			ep.ShowName,
			ep.Category.Encode(labels),
			strconv.FormatFloat(ep.DurationMinutes, 'f', 2, 64),
			ep.AddedAt,
			ep.URL,
			ep.ProcessedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts episodes to a Markdown document grouped by category.
func ExportToMarkdown(episodes []*models.Episode, labels models.Labels) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Podcast episodes\n\n")
	buf.WriteString(fmt.Sprintf("**Episodes**: %d\n\n", len(episodes)))

	byCategory := make(map[string][]*models.Episode)
	var categories []string
	for _, ep := range episodes {
		name := ep.Category.Encode(labels)
		if _, seen := byCategory[name]; !seen {
			categories = append(categories, name)
		}
		byCategory[name] = append(byCategory[name], ep)
	}
	sort.Strings(categories)

	for _, category := range categories {
		buf.WriteString(fmt.Sprintf("## %s\n\n", category))
		for i, ep := range byCategory[category] {
			duration := shared.FormatMinutes(ep.DurationMinutes)
			buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]", i+1, ep.ShowName, ep.Title, duration))
			if ep.URL != "" {
				buf.WriteString(fmt.Sprintf(" ([link](%s))", ep.URL))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// episodeJSON is the export projection of an episode.
type episodeJSON struct {
	ID              string  `json:"id"`
	PlaylistID      string  `json:"playlist_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	DurationMinutes float64 `json:"duration_minutes"`
	AddedAt         string  `json:"added_at,omitempty"`
	URL             string  `json:"url,omitempty"`
	ShowName        string  `json:"show_name,omitempty"`
	Category        string  `json:"category"`
	ProcessedAt     string  `json:"processed_at"`
}

// ExportToJSON converts episodes to pretty-printed JSON.
func ExportToJSON(episodes []*models.Episode, labels models.Labels) ([]byte, error) {
	out := make([]episodeJSON, 0, len(episodes))
	for _, ep := range episodes {
		out = append(out, episodeJSON{
			ID:              ep.ID,
			PlaylistID:      ep.PlaylistID,
			Title:           ep.Title,
			Description:     ep.Description,
			DurationMinutes: ep.DurationMinutes,
			AddedAt:         ep.AddedAt,
			URL:             ep.URL,
			ShowName:        ep.ShowName,
			Category:        ep.Category.Encode(labels),
			ProcessedAt:     ep.ProcessedAt.Format(time.RFC3339),
		})
	}

	return shared.MarshalJSON(out, true)
}

// DefaultFilename builds the export filename: spotify_podcasts_{playlist|all}_{timestamp}.{ext}
func DefaultFilename(playlistID, format string, now time.Time) string {
	suffix := "all"
	if playlistID != "" {
		suffix = playlistID
	}

	ext := format
	if ext == "markdown" {
		ext = "md"
	}

	return fmt.Sprintf("spotify_podcasts_%s_%s.%s", suffix, now.Format("20060102_150405"), ext)
}

// WriteExport renders episodes in the given format and writes them to a
// file. An empty path defaults to [DefaultFilename] inside outputDir.
// Returns the path written.
func WriteExport(episodes []*models.Episode, labels models.Labels, format, path, outputDir, playlistID string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case "markdown":
		data, err = ExportToMarkdown(episodes, labels)
	case "json":
		data, err = ExportToJSON(episodes, labels)
	case "csv", "":
		format = "csv"
		data, err = ExportToCSV(episodes, labels)
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render export: %w", err)
	}

	if path == "" {
		if outputDir == "" {
			outputDir = "."
		}
		path = filepath.Join(outputDir, DefaultFilename(playlistID, format, time.Now()))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
