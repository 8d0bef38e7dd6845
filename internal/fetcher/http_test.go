package fetcher

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gkh-data/domscan/internal/config"
)

func testFetcherConfig() *config.FetcherConfig {
	return &config.FetcherConfig{
		Type:        "http",
		UserAgent:   "domscan-test/1.0",
		Timeout:     5 * time.Second,
		MaxBodySize: 1 << 20,
	}
}

func TestHTTPFetcherSendsFixedUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(testFetcherConfig(), testLogger)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	defer f.Close()

	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if body != "<html>ok</html>" {
		t.Errorf("unexpected body %q", body)
	}
	if gotUA != "domscan-test/1.0" {
		t.Errorf("expected configured user agent, got %q", gotUA)
	}
}

func TestHTTPFetcherDecompressesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		gz.Write([]byte("<html>compressed</html>"))
		gz.Close()
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(testFetcherConfig(), testLogger)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	defer f.Close()

	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if body != "<html>compressed</html>" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestHTTPFetcherKeepsErrorPageBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html>nothing here</html>"))
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(testFetcherConfig(), testLogger)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}
	defer f.Close()

	// The registry serves error pages for unassigned ids; their bodies are
	// kept rather than turned into fetch failures.
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if body != "<html>nothing here</html>" {
		t.Errorf("unexpected body %q", body)
	}
}
