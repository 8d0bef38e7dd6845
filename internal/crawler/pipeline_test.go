package crawler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gkh-data/domscan/internal/cache"
	"github.com/gkh-data/domscan/internal/config"
	"github.com/gkh-data/domscan/internal/export"
	"github.com/gkh-data/domscan/internal/fetcher"
	"github.com/gkh-data/domscan/internal/store"
)

// TestPipelineEndToEnd drives all four stages through the real cache, stores,
// and dataset projection, then reruns the crawl stages to prove a second pass
// never reaches the network.
func TestPipelineEndToEnd(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Data.Dir = t.TempDir()
	urls := NewURLs(cfg.Registry)

	fake := &fakeFetcher{pages: map[string]string{
		urls.Root():         regionsPage(regionRow("Алтайский край", 1, 7167)),
		urls.Subregions(1):  regionsPage(regionRow("Барнаул", 11, 803)),
		urls.Subregions(11): emptyPage,
		urls.Listing(11):    leafListingHTML,
		urls.Profile(101):   buildingProfileHTML,
		urls.Profile(102):   emptyPage,
	}}

	pages, err := cache.Open(cfg.Data.CacheDir())
	if err != nil {
		t.Fatal(err)
	}
	cached := fetcher.NewCachedFetcher(fake, pages, testLogger)
	c := New(cached, cfg, testLogger)
	ctx := context.Background()

	// Stage 1: region tree.
	leaves, err := c.BuildRegions(ctx)
	if err != nil {
		t.Fatalf("BuildRegions: %v", err)
	}
	if err := store.SaveRegions(cfg.Data.RegionsPath(), leaves); err != nil {
		t.Fatalf("SaveRegions: %v", err)
	}
	leaves, err = store.LoadRegions(cfg.Data.RegionsPath())
	if err != nil {
		t.Fatalf("LoadRegions: %v", err)
	}
	if len(leaves) != 1 || leaves[0].Name != "Барнаул" {
		t.Fatalf("leaves = %+v", leaves)
	}

	// Stage 2: listings.
	records, err := c.CrawlListings(ctx, leaves)
	if err != nil {
		t.Fatalf("CrawlListings: %v", err)
	}
	if err := store.SaveListings(cfg.Data.ListingsPath(), records); err != nil {
		t.Fatalf("SaveListings: %v", err)
	}
	records, err = store.LoadListings(cfg.Data.ListingsPath(), leaves)
	if err != nil {
		t.Fatalf("LoadListings: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// Stage 3: profiles.
	snapshots, err := store.OpenProfiles(cfg.Data.ProfilesDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.CrawlProfiles(ctx, records, snapshots); err != nil {
		t.Fatalf("CrawlProfiles: %v", err)
	}
	if !snapshots.Has(101) || snapshots.Has(102) {
		t.Fatal("exactly building 101 should be snapshotted")
	}

	// Stage 4: dataset.
	index := store.IndexRegions(leaves)
	builder := export.NewBuilder(testLogger)
	for _, record := range records {
		if !snapshots.Has(record.ID) {
			continue
		}
		profile, err := snapshots.Load(record.ID, index)
		if err != nil {
			t.Fatalf("Load %d: %v", record.ID, err)
		}
		builder.Add(profile)
	}

	csvPath := filepath.Join(cfg.Data.Dir, "data.csv")
	sink := export.NewCSVSink(csvPath, testLogger)
	if err := sink.Write(ctx, builder.Sample(cfg.Export.SampleCap)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "latitude,longitude,year,floors,appartments,parking,repair,energy\n" +
		"53.348689,83.779837,,,,,,\n"
	if string(data) != want {
		t.Errorf("csv = %q, want %q", data, want)
	}

	// Rerun the crawl stages: snapshots skip building 101, everything else
	// answers from the cache.
	fetched := len(fake.calls)
	rerun := New(cached, cfg, testLogger)
	if _, err := rerun.BuildRegions(ctx); err != nil {
		t.Fatalf("rerun BuildRegions: %v", err)
	}
	if _, err := rerun.CrawlListings(ctx, leaves); err != nil {
		t.Fatalf("rerun CrawlListings: %v", err)
	}
	if err := rerun.CrawlProfiles(ctx, records, snapshots); err != nil {
		t.Fatalf("rerun CrawlProfiles: %v", err)
	}
	if len(fake.calls) != fetched {
		t.Errorf("rerun made %d network fetches", len(fake.calls)-fetched)
	}
	if got := rerun.Stats().ProfilesSkipped.Load(); got != 1 {
		t.Errorf("ProfilesSkipped = %d, want 1", got)
	}
}
