package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gkh-data/domscan/internal/types"
)

func TestCachePutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	url := "https://www.reformagkh.ru/myhouse?tid=17"
	if c.Has(url) {
		t.Error("fresh cache should not have the url")
	}

	if err := c.Put(url, "<html>ok</html>"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !c.Has(url) {
		t.Error("expected Has after Put")
	}

	got, err := c.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "<html>ok</html>" {
		t.Errorf("unexpected body: %q", got)
	}
}

func TestCacheGetMissing(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	_, err = c.Get("https://www.reformagkh.ru/myhouse?geo=reset")
	if !errors.Is(err, types.ErrNotCached) {
		t.Errorf("expected ErrNotCached, got %v", err)
	}
}

func TestCacheEmptyBodyIsCached(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	// A failed fetch is stored as an empty blob; Has must still be true so
	// the next run does not refetch.
	url := "https://www.reformagkh.ru/myhouse/profile/view/404/"
	if err := c.Put(url, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !c.Has(url) {
		t.Error("expected Has for an empty cached page")
	}
	got, err := c.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty body, got %q", got)
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	urls := []string{
		"https://www.reformagkh.ru/myhouse?geo=reset",
		"https://www.reformagkh.ru/myhouse?tid=1",
		"https://www.reformagkh.ru/myhouse?tid=2",
	}
	for _, u := range urls {
		if err := c.Put(u, "<html/>"); err != nil {
			t.Fatalf("put %s: %v", u, err)
		}
	}
	c.Close()

	c2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()

	if c2.Len() != len(urls) {
		t.Fatalf("expected %d entries after reopen, got %d", len(urls), c2.Len())
	}
	for i, u := range c2.URLs() {
		if u != urls[i] {
			t.Errorf("url %d: expected %s, got %s", i, urls[i], u)
		}
	}
}

func TestIndexToleratesDuplicatesAndJunk(t *testing.T) {
	dir := t.TempDir()
	url := "https://www.reformagkh.ru/myhouse?tid=7"
	key := Key(url)

	// A log with a repeated entry and a line truncated by a killed run.
	content := key + "\t" + url + "\n" +
		key + "\t" + url + "\n" +
		"deadbeef"
	if err := os.WriteFile(filepath.Join(dir, IndexFile), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, key+".html"), []byte("<html/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()

	if c.Len() != 1 {
		t.Errorf("expected 1 distinct entry, got %d", c.Len())
	}
	if !c.Has(url) {
		t.Error("expected Has for logged url")
	}
}

func TestKeyIsSHA1Hex(t *testing.T) {
	// Known digest so cache files stay compatible across runs.
	got := Key("https://www.reformagkh.ru/myhouse?geo=reset")
	if len(got) != 40 {
		t.Fatalf("expected 40 hex chars, got %d", len(got))
	}
	for _, r := range got {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("unexpected rune %q in key", r)
		}
	}
}
