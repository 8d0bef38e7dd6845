package cache

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// index is the append-only key-to-URL log backing the cache. It is a log,
// not a set: duplicate appends are permitted and readers ignore repeats.
// Each entry is one "{key}\t{url}\n" line written with a single O_APPEND
// write, so independent workers may append to the same file concurrently.
type index struct {
	mu   sync.Mutex
	file *os.File
	keys map[string]string // key -> url, first entry wins
	urls []string          // insertion order, repeats skipped
}

// openIndex loads an existing index file or creates an empty one.
func openIndex(path string) (*index, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}

	idx := &index{
		file: file,
		keys: make(map[string]string),
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		key, url, ok := strings.Cut(scanner.Text(), "\t")
		if !ok || key == "" {
			// A line truncated by a killed run; harmless, skip it.
			continue
		}
		idx.record(key, url)
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return nil, fmt.Errorf("read index: %w", err)
	}

	return idx, nil
}

func (idx *index) record(key, url string) {
	if _, seen := idx.keys[key]; seen {
		return
	}
	idx.keys[key] = url
	idx.urls = append(idx.urls, url)
}

// has reports whether a key was ever appended.
func (idx *index) has(key string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, ok := idx.keys[key]
	return ok
}

// append writes one entry line and records it in memory. The line goes out
// in a single write so concurrent appenders cannot interleave mid-line.
func (idx *index) append(key, url string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	line := key + "\t" + url + "\n"
	if _, err := idx.file.WriteString(line); err != nil {
		return fmt.Errorf("append index entry: %w", err)
	}
	idx.record(key, url)
	return nil
}

// len reports the number of distinct keys.
func (idx *index) len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return len(idx.keys)
}

// urlList returns every distinct URL in first-appended order.
func (idx *index) urlList() []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	out := make([]string, len(idx.urls))
	copy(out, idx.urls)
	return out
}

func (idx *index) close() error {
	return idx.file.Close()
}
