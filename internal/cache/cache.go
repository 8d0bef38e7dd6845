// Package cache implements the content-addressed HTML store shared by every
// crawl stage. A page lives at {dir}/{sha1(url)}.html and the append-only
// list.txt index maps each key back to its URL. The index, not blob
// existence, answers "already fetched": a failed fetch is cached as an
// empty blob and must not be refetched on the next run.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gkh-data/domscan/internal/types"
)

// IndexFile is the name of the append-only URL log inside the cache dir.
const IndexFile = "list.txt"

// Cache is a content-addressed page store rooted at one directory.
type Cache struct {
	dir string
	idx *index
}

// Open prepares the cache directory and loads its index.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	idx, err := openIndex(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, err
	}
	return &Cache{dir: dir, idx: idx}, nil
}

// Key derives the content address for a URL.
func Key(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

// Has reports whether a fetch of url was ever recorded, successful or not.
func (c *Cache) Has(url string) bool {
	return c.idx.has(Key(url))
}

// Get returns the cached page body. An empty string is a valid body: it is
// what a failed fetch leaves behind.
func (c *Cache) Get(url string) (string, error) {
	key := Key(url)
	if !c.idx.has(key) {
		return "", fmt.Errorf("get %s: %w", url, types.ErrNotCached)
	}
	data, err := os.ReadFile(c.blobPath(key))
	if err != nil {
		return "", fmt.Errorf("read cached page for %s: %w", url, err)
	}
	return string(data), nil
}

// Put stores a page body and records the URL in the index. Re-putting a URL
// overwrites the blob and appends another index line; readers tolerate the
// duplicate.
func (c *Cache) Put(url, content string) error {
	key := Key(url)
	if err := os.WriteFile(c.blobPath(key), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write cached page for %s: %w", url, err)
	}
	return c.idx.append(key, url)
}

// Len reports the number of distinct cached URLs.
func (c *Cache) Len() int { return c.idx.len() }

// URLs returns every cached URL in first-fetched order.
func (c *Cache) URLs() []string { return c.idx.urlList() }

// Dir returns the cache root directory.
func (c *Cache) Dir() string { return c.dir }

// Close releases the index file handle.
func (c *Cache) Close() error { return c.idx.close() }

func (c *Cache) blobPath(key string) string {
	return filepath.Join(c.dir, key+".html")
}
