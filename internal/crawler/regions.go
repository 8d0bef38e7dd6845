package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gkh-data/domscan/internal/config"
	"github.com/gkh-data/domscan/internal/fetcher"
	"github.com/gkh-data/domscan/internal/parser"
	"github.com/gkh-data/domscan/internal/types"
)

// Crawler drives the three crawl stages over one fetcher. The fetcher is
// expected to be cache-backed; the crawler itself never distinguishes a
// cache hit from a network fetch.
type Crawler struct {
	fetcher  fetcher.Fetcher
	urls     *URLs
	regions  *parser.RegionParser
	listings *parser.ListingParser
	profiles *parser.ProfileParser
	logger   *slog.Logger
	workers  int
	stats    Stats
}

// New creates a crawler on top of f.
func New(f fetcher.Fetcher, cfg *config.Config, logger *slog.Logger) *Crawler {
	return &Crawler{
		fetcher:  f,
		urls:     NewURLs(cfg.Registry),
		regions:  parser.NewRegionParser(logger),
		listings: parser.NewListingParser(logger),
		profiles: parser.NewProfileParser(logger),
		logger:   logger.With("component", "crawler"),
		workers:  cfg.Crawl.Workers,
	}
}

// Stats exposes the crawl counters.
func (c *Crawler) Stats() *Stats {
	return &c.stats
}

// BuildRegions walks the territory tree breadth-first from the root
// listing and returns its leaves: territories whose page lists no further
// subdivisions, plus disambiguation rows that never had pages of their
// own. Parent links trace each leaf back to a top-level territory.
//
// A territory whose page comes back empty (a fetch failure cached as an
// empty page included) counts as a leaf; a rerun after clearing that
// cache entry picks the walk back up.
func (c *Crawler) BuildRegions(ctx context.Context) ([]*types.Region, error) {
	html, err := c.fetcher.Fetch(ctx, c.urls.Root())
	if err != nil {
		return nil, fmt.Errorf("fetch root listing: %w", err)
	}
	queue, err := c.regions.Parse(html, nil)
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		c.logger.Warn("root listing yielded no regions")
	}

	var leaves []*types.Region
	visited := make(map[int]bool)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		region := queue[0]
		queue = queue[1:]
		c.stats.RegionsSeen.Add(1)

		if region.ID == nil {
			leaves = append(leaves, region)
			c.stats.LeavesFound.Add(1)
			continue
		}
		if visited[*region.ID] {
			c.logger.Warn("territory listed twice, keeping first occurrence",
				"region", region.Path(),
				"region_id", *region.ID,
			)
			continue
		}
		visited[*region.ID] = true

		html, err := c.fetcher.Fetch(ctx, c.urls.Subregions(*region.ID))
		if err != nil {
			return nil, fmt.Errorf("fetch subregions of %s: %w", region.Path(), err)
		}
		children, err := c.regions.Parse(html, region)
		if err != nil {
			return nil, err
		}

		if len(children) == 0 {
			leaves = append(leaves, region)
			c.stats.LeavesFound.Add(1)
			continue
		}
		queue = append(queue, children...)
	}

	c.logger.Info("region tree built",
		"regions", c.stats.RegionsSeen.Load(),
		"leaves", len(leaves),
	)
	return leaves, nil
}
