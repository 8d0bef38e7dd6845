package crawler

import (
	"context"
	"fmt"

	"github.com/gkh-data/domscan/internal/types"
)

// CrawlListings fetches and parses the building table of every leaf that
// has a territory id. Pseudo-regions have no listing page and contribute
// nothing. Records come back in leaf order, which makes the company
// intern table of a later save reproducible.
func (c *Crawler) CrawlListings(ctx context.Context, leaves []*types.Region) ([]types.ListingRecord, error) {
	var records []types.ListingRecord
	for _, leaf := range leaves {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if leaf.ID == nil {
			continue
		}

		html, err := c.fetcher.Fetch(ctx, c.urls.Listing(*leaf.ID))
		if err != nil {
			return nil, fmt.Errorf("fetch listing of %s: %w", leaf.Path(), err)
		}
		rows, err := c.listings.Parse(html, leaf)
		if err != nil {
			return nil, err
		}

		c.stats.ListingRows.Add(int64(len(rows)))
		c.logger.Debug("listing crawled",
			"region", leaf.Path(),
			"rows", len(rows),
		)
		records = append(records, rows...)
	}

	c.logger.Info("listings crawled",
		"leaves", len(leaves),
		"rows", len(records),
	)
	return records, nil
}

// FilterListings keeps the records whose leaf region lies in the subtree
// of (or is) the named territory. An empty name keeps everything.
func FilterListings(records []types.ListingRecord, name string) []types.ListingRecord {
	if name == "" {
		return records
	}
	var kept []types.ListingRecord
	for _, record := range records {
		if record.Region != nil && record.Region.HasAncestor(name) {
			kept = append(kept, record)
		}
	}
	return kept
}
