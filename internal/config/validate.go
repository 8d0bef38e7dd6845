package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Registry.BaseURL); err != nil {
		return fmt.Errorf("registry.base_url: %w", err)
	}
	if cfg.Registry.ListingLimit < 1 {
		return fmt.Errorf("registry.listing_limit must be >= 1, got %d", cfg.Registry.ListingLimit)
	}

	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.UserAgent == "" {
		return fmt.Errorf("fetcher.user_agent must not be empty")
	}
	if cfg.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.ProxyURL != "" {
		if _, err := url.Parse(cfg.Fetcher.ProxyURL); err != nil {
			return fmt.Errorf("invalid fetcher.proxy_url %q: %w", cfg.Fetcher.ProxyURL, err)
		}
	}
	if cfg.Fetcher.Type == "browser" && cfg.Fetcher.Browser.MaxPages < 1 {
		return fmt.Errorf("fetcher.browser.max_pages must be >= 1, got %d", cfg.Fetcher.Browser.MaxPages)
	}

	if cfg.Crawl.Workers < 1 {
		return fmt.Errorf("crawl.workers must be >= 1, got %d", cfg.Crawl.Workers)
	}
	if cfg.Crawl.Workers > 64 {
		return fmt.Errorf("crawl.workers must be <= 64, got %d", cfg.Crawl.Workers)
	}

	if cfg.Data.Dir == "" {
		return fmt.Errorf("data.dir must not be empty")
	}

	if len(cfg.Export.Sinks) == 0 {
		return fmt.Errorf("export.sinks must name at least one sink")
	}
	validSinks := map[string]bool{
		"csv": true, "postgres": true, "mongo": true, "elastic": true,
	}
	for _, sink := range cfg.Export.Sinks {
		if !validSinks[sink] {
			return fmt.Errorf("export sink %q is not supported (valid: csv, postgres, mongo, elastic)", sink)
		}
		switch sink {
		case "csv":
			if cfg.Export.Path == "" {
				return fmt.Errorf("export.path must be set for the csv sink")
			}
		case "postgres":
			if cfg.Export.Postgres.DSN == "" {
				return fmt.Errorf("export.postgres.dsn must be set for the postgres sink")
			}
		case "elastic":
			if len(cfg.Export.Elastic.Addresses) == 0 {
				return fmt.Errorf("export.elastic.addresses must be set for the elastic sink")
			}
		}
	}
	if cfg.Export.SampleCap < 1 {
		return fmt.Errorf("export.sample_cap must be >= 1, got %d", cfg.Export.SampleCap)
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

	return nil
}

// ValidateURL checks if a URL string is usable as a crawl base.
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
