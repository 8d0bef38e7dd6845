package fetcher

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gkh-data/domscan/internal/cache"
)

// CachedFetcher reads through the content cache. A URL is fetched from the
// network at most once across runs. A transport failure is logged and
// recorded as an empty cached page: the crawl never aborts because one page
// went bad, and the next run will not retry it either.
type CachedFetcher struct {
	inner  Fetcher
	cache  *cache.Cache
	logger *slog.Logger

	hits     atomic.Int64
	misses   atomic.Int64
	failures atomic.Int64
}

// NewCachedFetcher wraps a fetcher with the content cache.
func NewCachedFetcher(inner Fetcher, store *cache.Cache, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		inner:  inner,
		cache:  store,
		logger: logger.With("component", "cached_fetcher"),
	}
}

// Fetch returns the cached body when present, fetching and recording it
// otherwise. The returned error is non-nil only for cache I/O failures and
// cancellation; fetch failures degrade to an empty body.
func (f *CachedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.cache.Has(url) {
		f.hits.Add(1)
		return f.cache.Get(url)
	}
	f.misses.Add(1)

	body, err := f.inner.Fetch(ctx, url)
	if err != nil {
		// An interrupted run must leave no trace: caching an empty page
		// here would mask a URL that was never actually tried.
		if ctx.Err() != nil {
			return "", err
		}
		f.failures.Add(1)
		f.logger.Warn("fetch failed, caching empty page", "url", url, "error", err)
		body = ""
	}

	if err := f.cache.Put(url, body); err != nil {
		return "", err
	}
	return body, nil
}

// Close releases the underlying fetcher.
func (f *CachedFetcher) Close() error {
	return f.inner.Close()
}

// Type returns the fetcher type identifier.
func (f *CachedFetcher) Type() string {
	return "cached"
}

// Hits reports how many fetches were answered from the cache.
func (f *CachedFetcher) Hits() int64 { return f.hits.Load() }

// Misses reports how many fetches went to the network.
func (f *CachedFetcher) Misses() int64 { return f.misses.Load() }

// Failures reports how many network fetches failed and were cached empty.
func (f *CachedFetcher) Failures() int64 { return f.failures.Load() }
