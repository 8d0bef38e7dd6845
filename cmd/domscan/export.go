package main

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gkh-data/domscan/internal/config"
	"github.com/gkh-data/domscan/internal/crawler"
	"github.com/gkh-data/domscan/internal/export"
	"github.com/gkh-data/domscan/internal/store"
)

// exportCmd creates the "export" subcommand.
func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Project profile snapshots into the flat dataset",
		Long: "Project every crawled profile snapshot into the flat per-building dataset\n" +
			"and write it to the configured sinks. Buildings without map coordinates\n" +
			"and repeated coordinate points are dropped.",
		RunE: runExport,
	}

	cmd.Flags().StringVar(&sinkNames, "sinks", "", "comma-separated sinks: csv, postgres, mongo, elastic")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "csv output path")
	cmd.Flags().IntVar(&sampleCap, "sample-cap", 0, "max rows to keep, sampled uniformly (0 = use config)")
	cmd.Flags().StringVarP(&regionName, "region", "r", "", "restrict to buildings under the named region")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
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

	// Load every stage snapshot
	leaves, err := store.LoadRegions(cfg.Data.RegionsPath())
	if err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	records, err := store.LoadListings(cfg.Data.ListingsPath(), leaves)
	if err != nil {
		return fmt.Errorf("load listings: %w", err)
	}
	records = crawler.FilterListings(records, cfg.Crawl.Region)

	snapshots, err := store.OpenProfiles(cfg.Data.ProfilesDir())
	if err != nil {
		return fmt.Errorf("open profile store: %w", err)
	}
	index := store.IndexRegions(leaves)

	// Project profiles into dataset rows. Listed buildings whose profile
	// crawl has not happened yet are counted and skipped.
	builder := export.NewBuilder(logger)
	var missing int
	for _, record := range records {
		if !snapshots.Has(record.ID) {
			missing++
			continue
		}
		profile, err := snapshots.Load(record.ID, index)
		if err != nil {
			return fmt.Errorf("load profile %d: %w", record.ID, err)
		}
		builder.Add(profile)
	}
	if missing > 0 {
		logger.Warn("listed buildings without profile snapshots", "count", missing)
	}
	rows := builder.Sample(cfg.Export.SampleCap)

	ctx, cancel := signalContext(logger)
	defer cancel()

	sinks, err := export.NewSinks(ctx, cfg.Export, logger)
	if err != nil {
		return fmt.Errorf("open sinks: %w", err)
	}
	multi := export.NewMultiSink(sinks, logger)
	defer multi.Close()

	logger.Info("writing dataset",
		"rows", len(rows), "sinks", strings.Join(cfg.Export.Sinks, ","))

	start := time.Now()
	if err := multi.Write(ctx, rows); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	elapsed := time.Since(start)

	logger.Info("export complete",
		"elapsed", elapsed,
		"rows", len(rows),
		"mapped", builder.Len(),
		"dropped", builder.Skipped(),
		"missing", missing,
	)

	fmt.Printf("\n✅ Dataset exported in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Buildings: %d mapped, %d dropped (no or duplicate coordinates)\n",
		builder.Len(), builder.Skipped())
	if missing > 0 {
		fmt.Printf("   Missing:   %d listed buildings have no profile snapshot yet\n", missing)
	}
	if len(rows) < builder.Len() {
		fmt.Printf("   Sampled:   %d of %d rows (cap %d)\n", len(rows), builder.Len(), cfg.Export.SampleCap)
	}
	fmt.Printf("   Rows:      %d written\n", len(rows))
	fmt.Printf("   Sinks:     %s\n", strings.Join(cfg.Export.Sinks, ", "))
	if slices.Contains(cfg.Export.Sinks, "csv") {
		fmt.Printf("   Output:    %s\n", cfg.Export.Path)
	}
	return nil
}
