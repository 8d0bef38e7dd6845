package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gkh-data/domscan/internal/types"
)

// profileRow is one snapshot file:
// [region_id, id, coordinates, dates, measures, classification].
type profileRow struct {
	Region      *int
	ID          int
	Coordinates *types.Coordinates
	Dates       types.BuildYears
	Measures    types.Measures
	Class       types.Classification
}

func (r profileRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Region, r.ID, r.Coordinates, r.Dates, r.Measures, r.Class})
}

func (r *profileRow) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("profile row: %w", err)
	}
	if len(parts) != 6 {
		return fmt.Errorf("profile row: want 6 elements, got %d: %w", len(parts), types.ErrBadSnapshot)
	}
	targets := []any{&r.Region, &r.ID, &r.Coordinates, &r.Dates, &r.Measures, &r.Class}
	for i, part := range parts {
		if err := json.Unmarshal(part, targets[i]); err != nil {
			return fmt.Errorf("profile row[%d]: %w", i, err)
		}
	}
	return nil
}

// ProfileStore keeps one snapshot file per building under a directory,
// named {id}.json. The directory doubles as the resume index: a building
// whose file exists is done.
type ProfileStore struct {
	dir string
}

// OpenProfiles opens (creating if needed) the profile directory.
func OpenProfiles(dir string) (*ProfileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.StoreError{Target: dir, Err: err}
	}
	return &ProfileStore{dir: dir}, nil
}

// Path returns the snapshot path for a building id.
func (s *ProfileStore) Path(id int) string {
	return filepath.Join(s.dir, strconv.Itoa(id)+".json")
}

// Has reports whether a snapshot for id exists.
func (s *ProfileStore) Has(id int) bool {
	_, err := os.Stat(s.Path(id))
	return err == nil
}

// Save writes one profile snapshot.
func (s *ProfileStore) Save(profile *types.BuildingProfile) error {
	var regionID *int
	if profile.Region != nil {
		regionID = profile.Region.ID
	}
	return writeJSON(s.Path(profile.ID), profileRow{
		Region:      regionID,
		ID:          profile.ID,
		Coordinates: profile.Coordinates,
		Dates:       profile.Dates,
		Measures:    profile.Measures,
		Class:       profile.Class,
	})
}

// Load reads the snapshot for id, resolving its region through index.
func (s *ProfileStore) Load(id int, index map[int]*types.Region) (*types.BuildingProfile, error) {
	path := s.Path(id)
	var row profileRow
	if err := readJSON(path, &row); err != nil {
		return nil, err
	}

	if row.Region == nil {
		return nil, &types.StoreError{
			Target: path,
			Err:    fmt.Errorf("building %d: %w", id, types.ErrMissingRegion),
		}
	}
	region, ok := index[*row.Region]
	if !ok {
		return nil, &types.StoreError{
			Target: path,
			Err:    fmt.Errorf("region %d: %w", *row.Region, types.ErrMissingRegion),
		}
	}

	return &types.BuildingProfile{
		Region:      region,
		ID:          row.ID,
		Coordinates: row.Coordinates,
		Dates:       row.Dates,
		Measures:    row.Measures,
		Class:       row.Class,
	}, nil
}

// IDs lists the ids of every stored snapshot, ascending. Files that do
// not look like snapshots are ignored.
func (s *ProfileStore) IDs() ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &types.StoreError{Target: s.dir, Err: err}
	}
	ids := make([]int, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, ext, found := strings.Cut(entry.Name(), ".")
		if !found || ext != "json" {
			continue
		}
		id, err := strconv.Atoi(name)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
