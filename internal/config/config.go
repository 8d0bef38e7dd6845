package config

import (
	"path/filepath"
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for domscan.
type Config struct {
	Registry RegistryConfig `mapstructure:"registry" yaml:"registry"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Crawl    CrawlConfig    `mapstructure:"crawl"    yaml:"crawl"`
	Data     DataConfig     `mapstructure:"data"     yaml:"data"`
	Export   ExportConfig   `mapstructure:"export"   yaml:"export"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// RegistryConfig describes the housing-registry site being crawled.
type RegistryConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// ListingLimit is the page size requested for building listings. The
	// largest region holds around twelve thousand buildings, so the default
	// fetches every listing in one page.
	ListingLimit int `mapstructure:"listing_limit" yaml:"listing_limit"`
}

// FetcherConfig controls page retrieval.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"` // http or browser
	UserAgent       string        `mapstructure:"user_agent"        yaml:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"           yaml:"timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	ProxyURL        string        `mapstructure:"proxy_url"         yaml:"proxy_url"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	Browser         BrowserConfig `mapstructure:"browser"           yaml:"browser"`
}

// BrowserConfig controls the headless-browser fetcher.
type BrowserConfig struct {
	Stealth  bool `mapstructure:"stealth"   yaml:"stealth"`
	MaxPages int  `mapstructure:"max_pages" yaml:"max_pages"`
}

// CrawlConfig controls batch runs.
type CrawlConfig struct {
	// Workers is the number of concurrent profile workers. Each worker runs
	// the sequential pipeline over its own disjoint chunk of building ids.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// Region restricts profile and export runs to the subtree whose name
	// matches a region or any of its ancestors. Empty means everything.
	Region string `mapstructure:"region" yaml:"region"`
}

// DataConfig sets where crawl snapshots live. All stage outputs are laid
// out under one root directory.
type DataConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// CacheDir is where fetched pages and the URL index live.
func (d DataConfig) CacheDir() string { return filepath.Join(d.Dir, "html") }

// RegionsPath is the region-tree snapshot file.
func (d DataConfig) RegionsPath() string { return filepath.Join(d.Dir, "regions.json") }

// ListingsPath is the building-listing snapshot file.
func (d DataConfig) ListingsPath() string { return filepath.Join(d.Dir, "region_lists.json") }

// ProfilesDir holds one JSON file per building id.
func (d DataConfig) ProfilesDir() string { return filepath.Join(d.Dir, "profiles") }

// ExportConfig controls the dataset projection stage.
type ExportConfig struct {
	Sinks     []string       `mapstructure:"sinks"      yaml:"sinks"` // csv, postgres, mongo, elastic
	Path      string         `mapstructure:"path"       yaml:"path"`  // csv output path
	SampleCap int            `mapstructure:"sample_cap" yaml:"sample_cap"`
	Postgres  PostgresConfig `mapstructure:"postgres"   yaml:"postgres"`
	Mongo     MongoConfig    `mapstructure:"mongo"      yaml:"mongo"`
	Elastic   ElasticConfig  `mapstructure:"elastic"    yaml:"elastic"`
}

// PostgresConfig configures the postgres export sink.
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"   yaml:"dsn"`
	Table string `mapstructure:"table" yaml:"table"`
}

// MongoConfig configures the mongo export sink.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// ElasticConfig configures the elasticsearch export sink.
type ElasticConfig struct {
	Addresses []string `mapstructure:"addresses" yaml:"addresses"`
	Index     string   `mapstructure:"index"     yaml:"index"`
	Username  string   `mapstructure:"username"  yaml:"username"`
	Password  string   `mapstructure:"password"  yaml:"password"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			BaseURL:      "https://www.reformagkh.ru",
			ListingLimit: 100000,
		},
		Fetcher: FetcherConfig{
			Type: "http",
			// The registry rejects unfamiliar agents; this one is known good.
			UserAgent: "Mozilla/5.0 (Windows NT 6.3; Win64; x64) " +
				"AppleWebKit/537.36 (KHTML, like Gecko) " +
				"Chrome/37.0.2049.0 Safari/537.36",
			// Regional listing pages are assembled server-side and can take
			// over a minute to render.
			Timeout:         100 * time.Second,
			MaxBodySize:     64 * 1024 * 1024, // 64MB, a full-region listing is large
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			Browser: BrowserConfig{
				Stealth:  true,
				MaxPages: 4,
			},
		},
		Crawl: CrawlConfig{
			Workers: 1,
		},
		Data: DataConfig{
			Dir: "data",
		},
		Export: ExportConfig{
			Sinks:     []string{"csv"},
			Path:      "data.csv",
			SampleCap: 500000,
			Postgres: PostgresConfig{
				Table: "buildings",
			},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "domscan",
				Collection: "buildings",
			},
			Elastic: ElasticConfig{
				Addresses: []string{"http://localhost:9200"},
				Index:     "buildings",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}
