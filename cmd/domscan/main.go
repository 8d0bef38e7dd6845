package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gkh-data/domscan/internal/cache"
	"github.com/gkh-data/domscan/internal/config"
	"github.com/gkh-data/domscan/internal/crawler"
	"github.com/gkh-data/domscan/internal/fetcher"
	"github.com/gkh-data/domscan/internal/store"
)

var (
	cfgFile    string
	verbose    bool
	regionName string
	workers    int
	sinkNames  string
	outputPath string
	sampleCap  int
	showURLs   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "domscan",
		Short: "domscan — housing registry crawler for reformagkh.ru",
		Long: `domscan walks the public housing registry at reformagkh.ru and turns it
into a machine-readable dataset.

Stages:
  • regions:   walk the territory tree down to its leaf regions
  • listings:  collect the building rows of every leaf region
  • profiles:  fetch and parse one profile page per building
  • export:    project profile snapshots into the flat dataset

Every fetched page lands in a content-addressed cache before parsing, so
interrupted runs resume where they stopped and reruns never hit the network.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(regionsCmd())
	rootCmd.AddCommand(listingsCmd())
	rootCmd.AddCommand(profilesCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(cacheCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("domscan %s\n", config.Version)
		},
	}
}

// cacheCmd creates the "cache" subcommand for inspecting cached crawl state.
func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Show cached pages and profile snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			pages, err := cache.Open(cfg.Data.CacheDir())
			if err != nil {
				return fmt.Errorf("open page cache: %w", err)
			}
			defer pages.Close()

			snapshots, err := store.OpenProfiles(cfg.Data.ProfilesDir())
			if err != nil {
				return fmt.Errorf("open profile store: %w", err)
			}
			ids, err := snapshots.IDs()
			if err != nil {
				return fmt.Errorf("list snapshots: %w", err)
			}

			fmt.Printf("Directory:  %s\n", pages.Dir())
			fmt.Printf("Pages:      %d\n", pages.Len())
			fmt.Printf("Snapshots:  %d\n", len(ids))
			if showURLs {
				for _, pageURL := range pages.URLs() {
					fmt.Println(pageURL)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showURLs, "urls", false, "list every cached page URL")
	return cmd
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			applyCLIOverrides(cfg)

			region := cfg.Crawl.Region
			if region == "" {
				region = "(all)"
			}

			fmt.Printf("Registry:\n")
			fmt.Printf("  Base URL:        %s\n", cfg.Registry.BaseURL)
			fmt.Printf("  Listing Limit:   %d\n", cfg.Registry.ListingLimit)
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Type:            %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Timeout:         %s\n", cfg.Fetcher.Timeout)
			fmt.Printf("  Max Body Size:   %d bytes\n", cfg.Fetcher.MaxBodySize)
			fmt.Printf("  Proxy:           %s\n", cfg.Fetcher.ProxyURL)
			fmt.Printf("\nCrawl:\n")
			fmt.Printf("  Workers:         %d\n", cfg.Crawl.Workers)
			fmt.Printf("  Region:          %s\n", region)
			fmt.Printf("\nData:\n")
			fmt.Printf("  Directory:       %s\n", cfg.Data.Dir)
			fmt.Printf("  Page Cache:      %s\n", cfg.Data.CacheDir())
			fmt.Printf("  Regions:         %s\n", cfg.Data.RegionsPath())
			fmt.Printf("  Listings:        %s\n", cfg.Data.ListingsPath())
			fmt.Printf("  Profiles:        %s\n", cfg.Data.ProfilesDir())
			fmt.Printf("\nExport:\n")
			fmt.Printf("  Sinks:           %s\n", strings.Join(cfg.Export.Sinks, ", "))
			fmt.Printf("  CSV Path:        %s\n", cfg.Export.Path)
			fmt.Printf("  Sample Cap:      %d\n", cfg.Export.SampleCap)
			fmt.Printf("\nLogging:\n")
			fmt.Printf("  Level:           %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:          %s\n", cfg.Logging.Format)
			fmt.Printf("  Output:          %s\n", cfg.Logging.Output)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging config.
func setupLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	switch cfg.Output {
	case "", "stderr":
	case "stdout":
		out = os.Stdout
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler), nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cfg *config.Config) {
	if workers > 0 {
		cfg.Crawl.Workers = workers
	}
	if regionName != "" {
		cfg.Crawl.Region = regionName
	}
	if outputPath != "" {
		cfg.Export.Path = outputPath
	}
	if sampleCap > 0 {
		cfg.Export.SampleCap = sampleCap
	}
	if sinkNames != "" {
		var sinks []string
		for _, name := range strings.Split(sinkNames, ",") {
			if name = strings.TrimSpace(name); name != "" {
				sinks = append(sinks, strings.ToLower(name))
			}
		}
		cfg.Export.Sinks = sinks
	}
}

// openCrawler wires the page cache, fetcher, and crawler together. The
// caller closes the returned fetcher and cache when done.
func openCrawler(cfg *config.Config, logger *slog.Logger) (*crawler.Crawler, *fetcher.CachedFetcher, *cache.Cache, error) {
	pages, err := cache.Open(cfg.Data.CacheDir())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open page cache: %w", err)
	}
	inner, err := fetcher.New(&cfg.Fetcher, logger)
	if err != nil {
		pages.Close()
		return nil, nil, nil, fmt.Errorf("create fetcher: %w", err)
	}
	cached := fetcher.NewCachedFetcher(inner, pages, logger)
	return crawler.New(cached, cfg, logger), cached, pages, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()
	return ctx, cancel
}
