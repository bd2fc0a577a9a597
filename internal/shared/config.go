package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials    CredentialsConfig    `toml:"credentials"`
	Database       DatabaseConfig       `toml:"database"`
	Categorization CategorizationConfig `toml:"categorization"`
	Sync           SyncConfig           `toml:"sync"`
	Export         ExportConfig         `toml:"export"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

// SpotifyConfig contains Spotify API credentials.
//
// Either AccessToken or the ClientID/ClientSecret pair must be set for
// any operation that talks to Spotify.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	AccessToken  string `toml:"access_token"`
}

// GeminiConfig contains Gemini API credentials. An empty APIKey disables
// automatic categorization.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// CategorizationConfig controls the batch categorization pipeline.
type CategorizationConfig struct {
	Enabled            bool   `toml:"enabled"`
	RPMLimit           int    `toml:"rpm_limit"`
	MaxCategories      int    `toml:"max_categories"`
	DescriptionLimit   int    `toml:"description_limit"`
	UncategorizedLabel string `toml:"uncategorized_label"`
	ErrorLabel         string `toml:"error_label"`
}

// SyncConfig contains playlist synchronization settings.
type SyncConfig struct {
	PlaylistID string `toml:"playlist_id"`
}

// ExportConfig contains export settings.
type ExportConfig struct {
	Format    string `toml:"format"`
	OutputDir string `toml:"output_dir"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.applyDefaults()
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidConfig)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyDefaults fills zero values that a hand-edited config commonly omits.
func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "./spotify_podcasts.db"
	}
	if c.Credentials.Gemini.Model == "" {
		c.Credentials.Gemini.Model = "gemini-1.5-flash"
	}
	if c.Categorization.RPMLimit <= 0 {
		c.Categorization.RPMLimit = 15
	}
	if c.Categorization.MaxCategories <= 0 {
		c.Categorization.MaxCategories = 20
	}
	if c.Categorization.DescriptionLimit <= 0 {
		c.Categorization.DescriptionLimit = 500
	}
	if c.Categorization.UncategorizedLabel == "" {
		c.Categorization.UncategorizedLabel = "Sin categorizar"
	}
	if c.Categorization.ErrorLabel == "" {
		c.Categorization.ErrorLabel = "Error categorización"
	}
	if c.Export.Format == "" {
		c.Export.Format = "csv"
	}
}
