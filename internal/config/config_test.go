package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Catalog.Pages != 12 || cfg.AI.BatchSize != 30 {
		t.Errorf("unexpected defaults: pages=%d batch=%d", cfg.Catalog.Pages, cfg.AI.BatchSize)
	}
	if cfg.AI.RelationDelay != 2*time.Second || cfg.AI.ClarityDelay != 3*time.Second {
		t.Errorf("unexpected enrichment delays: %s/%s", cfg.AI.RelationDelay, cfg.AI.ClarityDelay)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad url", func(c *Config) { c.Catalog.BaseURL = "ftp://x" }, "catalog.base_url"},
		{"zero pages", func(c *Config) { c.Catalog.Pages = 0 }, "catalog.pages"},
		{"unknown driver", func(c *Config) { c.Browser.Driver = "selenium" }, "browser.driver"},
		{"empty path", func(c *Config) { c.Storage.EnrichedFile = "" }, "storage.enriched_file"},
		{"zero batch", func(c *Config) { c.AI.BatchSize = 0 }, "ai.batch_size"},
		{"custom without endpoint", func(c *Config) { c.AI.Provider = "custom" }, "ai.endpoint"},
		{"postgres without table", func(c *Config) {
			c.Storage.Postgres.DSN = "postgres://localhost/db"
			c.Storage.Postgres.Table = ""
		}, "storage.postgres.table"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playaetl.yaml")
	yaml := `
catalog:
  pages: 3
  page_delay: 500ms
ai:
  batch_size: 10
storage:
  enriched_file: out/enriched.csv
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLAYAETL_AI_BATCH_SIZE", "15")
	t.Setenv("PLAYAETL_AI_API_KEY", "")
	t.Setenv("API_GEMINI", "from-legacy-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Catalog.Pages != 3 {
		t.Errorf("pages = %d, want 3", cfg.Catalog.Pages)
	}
	if cfg.Catalog.PageDelay != 500*time.Millisecond {
		t.Errorf("page delay = %s", cfg.Catalog.PageDelay)
	}
	if cfg.AI.BatchSize != 15 {
		t.Errorf("env should override file: batch = %d", cfg.AI.BatchSize)
	}
	if cfg.Storage.EnrichedFile != "out/enriched.csv" {
		t.Errorf("enriched file = %q", cfg.Storage.EnrichedFile)
	}
	if cfg.Storage.DetailsFile != DefaultConfig().Storage.DetailsFile {
		t.Errorf("unset keys should keep defaults, got %q", cfg.Storage.DetailsFile)
	}
	if cfg.AI.APIKey != "from-legacy-env" {
		t.Errorf("api key = %q", cfg.AI.APIKey)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("an explicit config path that does not exist should fail")
	}
}
