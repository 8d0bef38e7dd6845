package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): CLI flags > env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	// A local .env feeds the environment before viper reads it; a missing
	// file is fine.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("DOMSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("domscan")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".domscan"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("registry.base_url", cfg.Registry.BaseURL)
	v.SetDefault("registry.listing_limit", cfg.Registry.ListingLimit)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.user_agent", cfg.Fetcher.UserAgent)
	v.SetDefault("fetcher.timeout", cfg.Fetcher.Timeout)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.proxy_url", cfg.Fetcher.ProxyURL)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.browser.stealth", cfg.Fetcher.Browser.Stealth)
	v.SetDefault("fetcher.browser.max_pages", cfg.Fetcher.Browser.MaxPages)

	v.SetDefault("crawl.workers", cfg.Crawl.Workers)
	v.SetDefault("crawl.region", cfg.Crawl.Region)

	v.SetDefault("data.dir", cfg.Data.Dir)

	v.SetDefault("export.sinks", cfg.Export.Sinks)
	v.SetDefault("export.path", cfg.Export.Path)
	v.SetDefault("export.sample_cap", cfg.Export.SampleCap)
	v.SetDefault("export.postgres.dsn", cfg.Export.Postgres.DSN)
	v.SetDefault("export.postgres.table", cfg.Export.Postgres.Table)
	v.SetDefault("export.mongo.uri", cfg.Export.Mongo.URI)
	v.SetDefault("export.mongo.database", cfg.Export.Mongo.Database)
	v.SetDefault("export.mongo.collection", cfg.Export.Mongo.Collection)
	v.SetDefault("export.elastic.addresses", cfg.Export.Elastic.Addresses)
	v.SetDefault("export.elastic.index", cfg.Export.Elastic.Index)
	v.SetDefault("export.elastic.username", cfg.Export.Elastic.Username)
	v.SetDefault("export.elastic.password", cfg.Export.Elastic.Password)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)
}
