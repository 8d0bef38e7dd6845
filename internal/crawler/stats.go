package crawler

import "sync/atomic"

// Stats counts crawl progress. Fields are atomics, profile workers update
// them concurrently.
type Stats struct {
	RegionsSeen     atomic.Int64
	LeavesFound     atomic.Int64
	ListingRows     atomic.Int64
	ProfilesSaved   atomic.Int64
	ProfilesSkipped atomic.Int64
	ProfilesEmpty   atomic.Int64
}
