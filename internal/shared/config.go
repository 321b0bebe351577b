package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

//go:embed config.example.toml
var exampleConf []byte

// MaxCatalogPages is the hard ceiling on catalog pages fetched by one bulk search.
const MaxCatalogPages = 30

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Backend       BackendConfig       `toml:"backend"`
	Catalog       CatalogConfig       `toml:"catalog"`
	Search        SearchConfig        `toml:"search"`
	Relationships RelationshipsConfig `toml:"relationships"`
	Database      DatabaseConfig      `toml:"database"`
	Logging       LoggingConfig       `toml:"logging"`
}

// BackendConfig points at the REST backend that stores users, logs and recommendations.
type BackendConfig struct {
	BaseURL  string   `toml:"base_url" validate:"required,url"`
	Token    string   `toml:"token"`
	Timeout  Duration `toml:"timeout"`
	Username string   `toml:"username"`
}

// CatalogConfig points at the third-party paginated media catalog.
type CatalogConfig struct {
	BaseURL       string   `toml:"base_url" validate:"required,url"`
	Token         string   `toml:"token"`
	Timeout       Duration `toml:"timeout"`
	MaxPages      int      `toml:"max_pages" validate:"eq=30"` // fixed at MaxCatalogPages
	TrendingPages int      `toml:"trending_pages" validate:"min=1,max=30"`
	RateLimit     float64  `toml:"rate_limit" validate:"gt=0"`
}

// SearchConfig controls type-ahead behaviour.
type SearchConfig struct {
	DiscardStale bool `toml:"discard_stale"`
	MinQuery     int  `toml:"min_query" validate:"min=2"`
}

// RelationshipsConfig controls partial-failure handling for paired user updates.
type RelationshipsConfig struct {
	Compensate bool `toml:"compensate"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" validate:"required"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"min=0"`
	MaxIdleConns int    `toml:"max_idle_conns" validate:"min=0"`
}

// LoggingConfig contains log level and the file used by the terminal UI.
type LoggingConfig struct {
	Level string `toml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	File  string `toml:"file"`
}

// Duration wraps [time.Duration] so it can be written as "10s" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks field constraints declared in struct tags.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
