package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for playaetl.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	AI      AIConfig      `mapstructure:"ai"      yaml:"ai"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// CatalogConfig describes the listing crawl target.
type CatalogConfig struct {
	BaseURL     string        `mapstructure:"base_url"     yaml:"base_url"`
	Pages       int           `mapstructure:"pages"        yaml:"pages"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout" yaml:"wait_timeout"`
	PageDelay   time.Duration `mapstructure:"page_delay"   yaml:"page_delay"`
}

// FetcherConfig controls the product detail fetcher.
type FetcherConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	DetailDelay     time.Duration `mapstructure:"detail_delay"      yaml:"detail_delay"`
	UserAgentsFile  string        `mapstructure:"user_agents_file"  yaml:"user_agents_file"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	Proxies         []string      `mapstructure:"proxies"           yaml:"proxies"`
	ProxyRotation   string        `mapstructure:"proxy_rotation"    yaml:"proxy_rotation"` // round_robin, random
}

// BrowserConfig selects and tunes the listing-page driver.
type BrowserConfig struct {
	Driver   string `mapstructure:"driver"   yaml:"driver"` // rod, chromedp, static
	Headless bool   `mapstructure:"headless" yaml:"headless"`
	Stealth  bool   `mapstructure:"stealth"  yaml:"stealth"`
	BinPath  string `mapstructure:"bin_path" yaml:"bin_path"`
}

// StorageConfig controls where each stage persists its dataset.
type StorageConfig struct {
	ListingFile      string         `mapstructure:"listing_file"      yaml:"listing_file"`
	DetailsFile      string         `mapstructure:"details_file"      yaml:"details_file"`
	DuplicatesFile   string         `mapstructure:"duplicates_file"   yaml:"duplicates_file"`
	DeduplicatedFile string         `mapstructure:"deduplicated_file" yaml:"deduplicated_file"`
	EnrichedFile     string         `mapstructure:"enriched_file"     yaml:"enriched_file"`
	JSONLFile        string         `mapstructure:"jsonl_file"        yaml:"jsonl_file"`
	Mongo            MongoConfig    `mapstructure:"mongo"             yaml:"mongo"`
	Postgres         PostgresConfig `mapstructure:"postgres"          yaml:"postgres"`
}

// MongoConfig enables exporting the enriched dataset to MongoDB.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// PostgresConfig enables exporting the enriched dataset to PostgreSQL.
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"   yaml:"dsn"`
	Table string `mapstructure:"table" yaml:"table"`
}

// AIConfig controls the text-generation model used for enrichment.
type AIConfig struct {
	Provider      string        `mapstructure:"provider"       yaml:"provider"`
	Model         string        `mapstructure:"model"          yaml:"model"`
	Endpoint      string        `mapstructure:"endpoint"       yaml:"endpoint"`
	APIKey        string        `mapstructure:"api_key"        yaml:"api_key"`
	MaxTokens     int           `mapstructure:"max_tokens"     yaml:"max_tokens"`
	Temperature   float64       `mapstructure:"temperature"    yaml:"temperature"`
	Timeout       time.Duration `mapstructure:"timeout"        yaml:"timeout"`
	BatchSize     int           `mapstructure:"batch_size"     yaml:"batch_size"`
	RelationDelay time.Duration `mapstructure:"relation_delay" yaml:"relation_delay"`
	ClarityDelay  time.Duration `mapstructure:"clarity_delay"  yaml:"clarity_delay"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus-style metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:     "https://www.falabella.com.pe/falabella-pe/collection/lo-mejor-de-playa",
			Pages:       12,
			WaitTimeout: 10 * time.Second,
			PageDelay:   2 * time.Second,
		},
		Fetcher: FetcherConfig{
			RequestTimeout:  15 * time.Second,
			DetailDelay:     2 * time.Second,
			UserAgentsFile:  "configs/user_agents.txt",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    10,
			ProxyRotation:   "round_robin",
		},
		Browser: BrowserConfig{
			Driver:   "rod",
			Headless: true,
		},
		Storage: StorageConfig{
			ListingFile:      "data/raw/products_list.csv",
			DetailsFile:      "data/raw/products_details.csv",
			DuplicatesFile:   "data/transformed/duplicates/duplicated_products.csv",
			DeduplicatedFile: "data/transformed/cleaning/deduplicated_products.csv",
			EnrichedFile:     "data/transformed/enrichment/enrichment_products.csv",
			Mongo: MongoConfig{
				Database:   "playaetl",
				Collection: "enriched_products",
			},
			Postgres: PostgresConfig{
				Table: "enriched_products",
			},
		},
		AI: AIConfig{
			Provider:      "gemini",
			Model:         "gemini-2.0-flash-exp",
			MaxTokens:     2048,
			Temperature:   0.2,
			Timeout:       120 * time.Second,
			BatchSize:     30,
			RelationDelay: 2 * time.Second,
			ClarityDelay:  3 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
