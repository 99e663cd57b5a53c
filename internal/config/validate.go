package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Catalog.BaseURL); err != nil {
		return fmt.Errorf("catalog.base_url: %w", err)
	}
	if cfg.Catalog.Pages < 1 {
		return fmt.Errorf("catalog.pages must be >= 1, got %d", cfg.Catalog.Pages)
	}
	if cfg.Catalog.WaitTimeout <= 0 {
		return fmt.Errorf("catalog.wait_timeout must be > 0")
	}
	if cfg.Catalog.PageDelay < 0 {
		return fmt.Errorf("catalog.page_delay must be >= 0")
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.DetailDelay < 0 {
		return fmt.Errorf("fetcher.detail_delay must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	if r := cfg.Fetcher.ProxyRotation; r != "" && r != "round_robin" && r != "random" {
		return fmt.Errorf("fetcher.proxy_rotation must be round_robin or random, got %q", r)
	}
	for _, p := range cfg.Fetcher.Proxies {
		if err := ValidateURL(p); err != nil {
			return fmt.Errorf("fetcher.proxies: %q: %w", p, err)
		}
	}

	validDrivers := map[string]bool{"rod": true, "chromedp": true, "static": true}
	if !validDrivers[cfg.Browser.Driver] {
		return fmt.Errorf("browser.driver %q is not supported (valid: rod, chromedp, static)", cfg.Browser.Driver)
	}

	for name, path := range map[string]string{
		"storage.listing_file":      cfg.Storage.ListingFile,
		"storage.details_file":      cfg.Storage.DetailsFile,
		"storage.duplicates_file":   cfg.Storage.DuplicatesFile,
		"storage.deduplicated_file": cfg.Storage.DeduplicatedFile,
		"storage.enriched_file":     cfg.Storage.EnrichedFile,
	} {
		if path == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}
	if cfg.Storage.Mongo.URI != "" && (cfg.Storage.Mongo.Database == "" || cfg.Storage.Mongo.Collection == "") {
		return fmt.Errorf("storage.mongo needs database and collection when uri is set")
	}
	if cfg.Storage.Postgres.DSN != "" && cfg.Storage.Postgres.Table == "" {
		return fmt.Errorf("storage.postgres.table must be set when dsn is set")
	}

	validProviders := map[string]bool{"gemini": true, "ollama": true, "openai": true, "custom": true}
	if !validProviders[cfg.AI.Provider] {
		return fmt.Errorf("ai.provider %q is not supported (valid: gemini, ollama, openai, custom)", cfg.AI.Provider)
	}
	if cfg.AI.Provider == "custom" && cfg.AI.Endpoint == "" {
		return fmt.Errorf("ai.endpoint is required for the custom provider")
	}
	if cfg.AI.BatchSize < 1 {
		return fmt.Errorf("ai.batch_size must be >= 1, got %d", cfg.AI.BatchSize)
	}
	if cfg.AI.RelationDelay < 0 || cfg.AI.ClarityDelay < 0 {
		return fmt.Errorf("ai.relation_delay and ai.clarity_delay must be >= 0")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid for crawling.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
