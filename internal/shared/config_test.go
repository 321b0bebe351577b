package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./shelf.db" {
			t.Errorf("expected database path ./shelf.db, got %s", config.Database.Path)
		}
		if config.Backend.BaseURL != "http://127.0.0.1:5000" {
			t.Errorf("expected backend URL http://127.0.0.1:5000, got %s", config.Backend.BaseURL)
		}
		if config.Catalog.MaxPages != MaxCatalogPages {
			t.Errorf("expected %d max pages, got %d", MaxCatalogPages, config.Catalog.MaxPages)
		}
		if config.Catalog.TrendingPages != 15 {
			t.Errorf("expected 15 trending pages, got %d", config.Catalog.TrendingPages)
		}
		if config.Backend.Timeout.Duration != 10*time.Second {
			t.Errorf("expected 10s backend timeout, got %s", config.Backend.Timeout)
		}
		if !config.Search.DiscardStale {
			t.Error("expected stale suggestions to be discarded by default")
		}
		if !config.Relationships.Compensate {
			t.Error("expected compensation to be enabled by default")
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
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

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[backend]
base_url = "http://backend.test"
token = "secret"
timeout = "3s"
username = "alice"

[catalog]
trending_pages = 5

[search]
discard_stale = false

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Backend.BaseURL != "http://backend.test" {
			t.Errorf("expected backend URL http://backend.test, got %s", config.Backend.BaseURL)
		}
		if config.Backend.Username != "alice" {
			t.Errorf("expected username alice, got %s", config.Backend.Username)
		}
		if config.Backend.Timeout.Duration != 3*time.Second {
			t.Errorf("expected 3s timeout, got %s", config.Backend.Timeout)
		}
		if config.Catalog.TrendingPages != 5 {
			t.Errorf("expected 5 trending pages, got %d", config.Catalog.TrendingPages)
		}
		if config.Catalog.MaxPages != MaxCatalogPages {
			t.Errorf("expected %d max pages, got %d", MaxCatalogPages, config.Catalog.MaxPages)
		}
		if config.Catalog.BaseURL != DefaultConfig().Catalog.BaseURL {
			t.Errorf("expected catalog URL to keep default, got %s", config.Catalog.BaseURL)
		}
		if config.Search.DiscardStale {
			t.Error("expected discard_stale override to be false")
		}
		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Rejects Page Ceiling", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[catalog]\nmax_pages = 50\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Rejects Lowered Search Bounds", func(t *testing.T) {
		for _, body := range []string{
			"[catalog]\nmax_pages = 5\n",
			"[search]\nmin_query = 1\n",
		} {
			configPath := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig for %q, got %v", body, err)
			}
		}
	})

	t.Run("LoadConfig Rejects Bad Duration", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[backend]\ntimeout = \"soon\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected error for invalid duration")
		}
	})
}
