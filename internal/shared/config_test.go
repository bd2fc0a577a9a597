package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./spotify_podcasts.db" {
			t.Errorf("expected database path ./spotify_podcasts.db, got %s", config.Database.Path)
		}

		if config.Credentials.Gemini.Model != "gemini-1.5-flash" {
			t.Errorf("expected default gemini model, got %s", config.Credentials.Gemini.Model)
		}

		if config.Categorization.RPMLimit != 15 {
			t.Errorf("expected rpm limit 15, got %d", config.Categorization.RPMLimit)
		}

		if config.Categorization.MaxCategories != 20 {
			t.Errorf("expected max categories 20, got %d", config.Categorization.MaxCategories)
		}

		if config.Categorization.UncategorizedLabel != "Sin categorizar" {
			t.Errorf("unexpected uncategorized label %q", config.Categorization.UncategorizedLabel)
		}

		if config.Export.Format != "csv" {
			t.Errorf("expected default export format csv, got %s", config.Export.Format)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
access_token = "test_token"

[credentials.gemini]
api_key = "test_api_key"
model = "gemini-2.0-flash"

[categorization]
enabled = true
rpm_limit = 5
max_categories = 10
uncategorized_label = "TBD"

[sync]
playlist_id = "pl123"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Categorization.RPMLimit != 5 {
			t.Errorf("expected rpm limit 5, got %d", config.Categorization.RPMLimit)
		}

		if config.Categorization.UncategorizedLabel != "TBD" {
			t.Errorf("expected custom label TBD, got %s", config.Categorization.UncategorizedLabel)
		}

		if config.Sync.PlaylistID != "pl123" {
			t.Errorf("expected playlist pl123, got %s", config.Sync.PlaylistID)
		}

		// Omitted values fall back to defaults.
		if config.Categorization.ErrorLabel != "Error categorización" {
			t.Errorf("expected default error label, got %s", config.Categorization.ErrorLabel)
		}

		if config.Categorization.DescriptionLimit != 500 {
			t.Errorf("expected default description limit, got %d", config.Categorization.DescriptionLimit)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected an error for a missing config file")
		}
	})
}
