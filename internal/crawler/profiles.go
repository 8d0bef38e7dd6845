package crawler

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gkh-data/domscan/internal/store"
	"github.com/gkh-data/domscan/internal/types"
)

// CrawlProfiles fetches, parses and snapshots the profile page of every
// listed building that has no snapshot yet. Buildings are dealt
// round-robin to the configured number of workers. The first worker error
// cancels the rest; already-written snapshots stay, so the next run
// resumes where this one stopped.
func (c *Crawler) CrawlProfiles(ctx context.Context, records []types.ListingRecord, snapshots *store.ProfileStore) error {
	var pending []types.ListingRecord
	for _, record := range records {
		if snapshots.Has(record.ID) {
			c.stats.ProfilesSkipped.Add(1)
			continue
		}
		pending = append(pending, record)
	}
	c.logger.Info("profiles to crawl",
		"total", len(records),
		"pending", len(pending),
		"workers", c.workers,
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, chunk := range Partition(pending, c.workers) {
		g.Go(func() error {
			for _, record := range chunk {
				if err := c.crawlProfile(ctx, record, snapshots); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.logger.Info("profiles crawled",
		"saved", c.stats.ProfilesSaved.Load(),
		"skipped", c.stats.ProfilesSkipped.Load(),
		"empty", c.stats.ProfilesEmpty.Load(),
	)
	return nil
}

func (c *Crawler) crawlProfile(ctx context.Context, record types.ListingRecord, snapshots *store.ProfileStore) error {
	html, err := c.fetcher.Fetch(ctx, c.urls.Profile(record.ID))
	if err != nil {
		return fmt.Errorf("fetch profile %d: %w", record.ID, err)
	}

	profile, err := c.profiles.Parse(html, record.Region, record.ID)
	if err != nil {
		// A page with no recognizable data stays cached but produces no
		// snapshot, so it is retried once its cache entry is cleared.
		if errors.Is(err, types.ErrProfileShape) {
			c.logger.Warn("profile page without recognizable data",
				"building", record.ID,
				"address", record.Address,
			)
			c.stats.ProfilesEmpty.Add(1)
			return nil
		}
		return err
	}

	if err := snapshots.Save(profile); err != nil {
		return err
	}
	c.stats.ProfilesSaved.Add(1)
	return nil
}
