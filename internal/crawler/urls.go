// Package crawler walks the registry in three stages: the territory tree
// down to its leaves, the building listing of every leaf, and the profile
// page of every listed building. All page loads go through the caching
// fetcher, so a rerun only touches the network for pages it has never
// seen.
package crawler

import (
	"fmt"

	"github.com/gkh-data/domscan/internal/config"
)

// URLs builds the registry's page addresses.
type URLs struct {
	base  string
	limit int
}

// NewURLs creates a URL builder for the configured registry.
func NewURLs(cfg config.RegistryConfig) *URLs {
	return &URLs{base: cfg.BaseURL, limit: cfg.ListingLimit}
}

// Root is the top of the territory tree, with any sticky geo cookie reset.
func (u *URLs) Root() string {
	return u.base + "/myhouse?geo=reset"
}

// Subregions lists the children of one territory.
func (u *URLs) Subregions(id int) string {
	return fmt.Sprintf("%s/myhouse?tid=%d", u.base, id)
}

// Listing is a leaf territory's building table. The page size is set high
// enough to fetch the whole listing in one request; the largest region
// holds around twelve thousand buildings.
func (u *URLs) Listing(id int) string {
	return fmt.Sprintf("%s/myhouse?tid=%d&page=1&limit=%d", u.base, id, u.limit)
}

// Profile is one building's detail page.
func (u *URLs) Profile(id int) string {
	return fmt.Sprintf("%s/myhouse/profile/view/%d/", u.base, id)
}
