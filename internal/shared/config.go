package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Lookup sources for the full movie record submitted on add.
const (
	LookupLibrary  = "library"
	LookupMetadata = "metadata"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Metadata  MetadataConfig   `toml:"metadata"`
	Library   LibraryConfig    `toml:"library"`
	Providers []ProviderConfig `toml:"providers"`
	Sync      SyncConfig       `toml:"sync"`
	Log       LogConfig        `toml:"log"`
	Database  DatabaseConfig   `toml:"database"`
}

// MetadataConfig contains the TMDb connection settings.
type MetadataConfig struct {
	APIKey      string `toml:"api_key"`
	AccessToken string `toml:"access_token"`
	BaseURL     string `toml:"base_url"`
	Region      string `toml:"region"`
	Language    string `toml:"language"`
}

// LibraryConfig contains the Radarr connection and add settings.
type LibraryConfig struct {
	URL                 string `toml:"url"`
	APIKey              string `toml:"api_key"`
	QualityProfile      string `toml:"quality_profile"`
	RootFolder          string `toml:"root_folder"`
	Monitored           bool   `toml:"monitored"`
	MinimumAvailability string `toml:"minimum_availability"`
	Lookup              string `toml:"lookup"`
}

// ProviderConfig is a streaming provider as configured, in declaration order.
type ProviderConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// SyncConfig contains reconciliation tuning.
type SyncConfig struct {
	TopN     int      `toml:"top_n"`
	Pacing   Duration `toml:"pacing"`
	Workers  int      `toml:"workers"`
	LockPath string   `toml:"lock_path"`
}

// LogConfig controls the console logger and the append-only run log.
type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// DatabaseConfig contains run history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Duration is a [time.Duration] that decodes from strings like "1s" or "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q: %v", ErrInvalidConfig, text, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads a TOML configuration file and overlays it on [DefaultConfig].
//
// Providers are replaced wholesale when the file declares any.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrMissingConfig, err)
	}

	config := DefaultConfig()
	defaults := config.Providers
	config.Providers = nil

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if len(config.Providers) == 0 {
		config.Providers = defaults
	}

	return config, nil
}

// placeholderPrefix marks the credential stand-ins of the embedded template.
const placeholderPrefix = "your_"

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
//
// Credentials are left empty; the template's placeholders only appear in files written by [CreateConfigFile].
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.Metadata.APIKey = ""
	config.Metadata.AccessToken = ""
	config.Library.APIKey = ""
	return &config
}

func isPlaceholder(v string) bool {
	return strings.HasPrefix(v, placeholderPrefix)
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports every missing or out of range setting at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Metadata.APIKey == "" && c.Metadata.AccessToken == "" {
		fail("metadata.api_key or metadata.access_token is required")
	}
	if isPlaceholder(c.Metadata.APIKey) || isPlaceholder(c.Metadata.AccessToken) {
		fail("metadata credentials still hold the template placeholder")
	}
	if c.Metadata.Region == "" {
		fail("metadata.region is required")
	}
	if c.Library.URL == "" {
		fail("library.url is required")
	}
	if c.Library.APIKey == "" {
		fail("library.api_key is required")
	} else if isPlaceholder(c.Library.APIKey) {
		fail("library.api_key still holds the template placeholder")
	}
	if c.Library.QualityProfile == "" {
		fail("library.quality_profile is required")
	}
	if c.Library.RootFolder == "" {
		fail("library.root_folder is required")
	}
	switch c.Library.Lookup {
	case "", LookupLibrary, LookupMetadata:
	default:
		fail("library.lookup must be %q or %q, got %q", LookupLibrary, LookupMetadata, c.Library.Lookup)
	}
	if len(c.Providers) == 0 {
		fail("at least one [[providers]] entry is required")
	}
	for i, p := range c.Providers {
		if p.ID == "" || p.Name == "" {
			fail("providers[%d] needs both id and name", i)
		}
	}
	if c.Sync.TopN <= 0 {
		fail("sync.top_n must be positive, got %d", c.Sync.TopN)
	}
	if c.Sync.Pacing.Duration < 0 {
		fail("sync.pacing must not be negative")
	}
	if c.Sync.Workers < 0 {
		fail("sync.workers must not be negative")
	}

	return errors.Join(errs...)
}
