// Package store persists each crawl stage under the data directory: the
// region tree, the flattened building listings, and one snapshot file per
// building profile. Snapshots use positional arrays rather than keyed
// objects, which keeps the profile directory compact across millions of
// files and makes shape drift loud instead of silent.
package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gkh-data/domscan/internal/types"
)

// writeJSON writes v to path through a temp-file rename, so a crash mid
// write never leaves a truncated stage file behind.
func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &types.StoreError{Target: path, Err: fmt.Errorf("encode: %w", err)}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &types.StoreError{Target: path, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &types.StoreError{Target: path, Err: err}
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &types.StoreError{Target: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &types.StoreError{Target: path, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
