package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gkh-data/domscan/internal/config"
	"github.com/gkh-data/domscan/internal/crawler"
	"github.com/gkh-data/domscan/internal/store"
)

// regionsCmd creates the "regions" subcommand.
func regionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "Walk the territory tree and snapshot its leaf regions",
		Long: "Walk the registry's territory tree from the root listing down to the\n" +
			"regions that hold buildings directly, and save the tree as a snapshot.",
		RunE: runRegions,
	}
}

func runRegions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}

	c, cached, pages, err := openCrawler(cfg, logger)
	if err != nil {
		return err
	}
	defer pages.Close()
	defer cached.Close()

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("building region tree", "base_url", cfg.Registry.BaseURL)

	start := time.Now()
	leaves, err := c.BuildRegions(ctx)
	if err != nil {
		return fmt.Errorf("build region tree: %w", err)
	}
	if err := store.SaveRegions(cfg.Data.RegionsPath(), leaves); err != nil {
		return fmt.Errorf("save regions: %w", err)
	}
	elapsed := time.Since(start)

	stats := c.Stats()
	logger.Info("region stage complete",
		"elapsed", elapsed,
		"regions", stats.RegionsSeen.Load(),
		"leaves", stats.LeavesFound.Load(),
	)

	fmt.Printf("\n✅ Region tree built in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Regions:   %d visited, %d leaves\n", stats.RegionsSeen.Load(), stats.LeavesFound.Load())
	fmt.Printf("   Cache:     %d hits, %d fetches\n", cached.Hits(), cached.Misses())
	if n := cached.Failures(); n > 0 {
		fmt.Printf("   Failures:  %d fetches failed and were cached empty\n", n)
	}
	fmt.Printf("   Output:    %s\n", cfg.Data.RegionsPath())
	return nil
}

// listingsCmd creates the "listings" subcommand.
func listingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listings",
		Short: "Collect the building rows of every leaf region",
		Long: "Fetch the building listing of every leaf region in the region snapshot\n" +
			"and save the collected rows. Requires a prior \"domscan regions\" run.",
		RunE: runListings,
	}
}

func runListings(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}

	leaves, err := store.LoadRegions(cfg.Data.RegionsPath())
	if err != nil {
		return fmt.Errorf("load regions: %w", err)
	}

	c, cached, pages, err := openCrawler(cfg, logger)
	if err != nil {
		return err
	}
	defer pages.Close()
	defer cached.Close()

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("crawling listings", "leaves", len(leaves))

	start := time.Now()
	records, err := c.CrawlListings(ctx, leaves)
	if err != nil {
		return fmt.Errorf("crawl listings: %w", err)
	}
	if err := store.SaveListings(cfg.Data.ListingsPath(), records); err != nil {
		return fmt.Errorf("save listings: %w", err)
	}
	elapsed := time.Since(start)

	logger.Info("listing stage complete",
		"elapsed", elapsed,
		"leaves", len(leaves),
		"buildings", len(records),
	)

	fmt.Printf("\n✅ Listings collected in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Regions:   %d leaves crawled\n", len(leaves))
	fmt.Printf("   Buildings: %d listed\n", len(records))
	fmt.Printf("   Cache:     %d hits, %d fetches\n", cached.Hits(), cached.Misses())
	if n := cached.Failures(); n > 0 {
		fmt.Printf("   Failures:  %d fetches failed and were cached empty\n", n)
	}
	fmt.Printf("   Output:    %s\n", cfg.Data.ListingsPath())
	return nil
}

// profilesCmd creates the "profiles" subcommand.
func profilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Fetch and parse one profile page per listed building",
		Long: "Fetch the profile page of every building in the listing snapshot, parse\n" +
			"it, and save one snapshot file per building. Buildings that already have\n" +
			"a snapshot are skipped, so an interrupted run can simply be rerun.",
		RunE: runProfiles,
	}

	cmd.Flags().IntVarP(&workers, "workers", "n", 0, "concurrent profile workers (0 = use config)")
	cmd.Flags().StringVarP(&regionName, "region", "r", "", "restrict to buildings under the named region")
	return cmd
}

func runProfiles(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := setupLogger(cfg.Logging)
	if err != nil {
		return err
	}

	// Load the earlier stage snapshots
	leaves, err := store.LoadRegions(cfg.Data.RegionsPath())
	if err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	records, err := store.LoadListings(cfg.Data.ListingsPath(), leaves)
	if err != nil {
		return fmt.Errorf("load listings: %w", err)
	}
	total := len(records)
	records = crawler.FilterListings(records, cfg.Crawl.Region)
	if cfg.Crawl.Region != "" {
		logger.Info("restricted to region",
			"region", cfg.Crawl.Region, "kept", len(records), "total", total)
	}

	snapshots, err := store.OpenProfiles(cfg.Data.ProfilesDir())
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}

	c, cached, pages, err := openCrawler(cfg, logger)
	if err != nil {
		return err
	}
	defer pages.Close()
	defer cached.Close()

	ctx, cancel := signalContext(logger)
	defer cancel()

	logger.Info("crawling profiles", "buildings", len(records), "workers", cfg.Crawl.Workers)

	start := time.Now()
	err = c.CrawlProfiles(ctx, records, snapshots)
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return fmt.Errorf("crawl profiles: %w", err)
	}
	elapsed := time.Since(start)

	stats := c.Stats()
	logger.Info("profile stage complete",
		"elapsed", elapsed,
		"saved", stats.ProfilesSaved.Load(),
		"skipped", stats.ProfilesSkipped.Load(),
		"empty", stats.ProfilesEmpty.Load(),
	)

	fmt.Printf("\n✅ Profiles crawled in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Profiles:  %d saved, %d already snapshotted\n",
		stats.ProfilesSaved.Load(), stats.ProfilesSkipped.Load())
	fmt.Printf("   Empty:     %d pages without building data\n", stats.ProfilesEmpty.Load())
	fmt.Printf("   Cache:     %d hits, %d fetches\n", cached.Hits(), cached.Misses())
	if n := cached.Failures(); n > 0 {
		fmt.Printf("   Failures:  %d fetches failed and were cached empty\n", n)
	}
	fmt.Printf("   Output:    %s\n", cfg.Data.ProfilesDir())
	if interrupted {
		fmt.Printf("\n💡 Interrupted. Snapshots written so far are kept; rerun to resume.\n")
	}
	return nil
}
