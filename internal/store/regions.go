package store

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gkh-data/domscan/internal/types"
)

// The region file is a two-element array: a table of every inner node
// keyed by its id, and the list of leaf rows. Object keys are strings in
// JSON, so the table round-trips ids through strconv.
//
//	[{"2208043": [null, "Алтайский край", 7167]},
//	 [[2208043, "Барнаул", 2208300, 803], ...]]

// parentRow is one inner node: [parent_id, name, buildings].
type parentRow struct {
	Parent    *int
	Name      string
	Buildings int
}

func (r parentRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Parent, r.Name, r.Buildings})
}

func (r *parentRow) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("parent row: %w", err)
	}
	if len(parts) != 3 {
		return fmt.Errorf("parent row: want 3 elements, got %d: %w", len(parts), types.ErrBadSnapshot)
	}
	targets := []any{&r.Parent, &r.Name, &r.Buildings}
	for i, part := range parts {
		if err := json.Unmarshal(part, targets[i]); err != nil {
			return fmt.Errorf("parent row[%d]: %w", i, err)
		}
	}
	return nil
}

// leafRow is one leaf region: [parent_id, name, id, buildings]. The id is
// null for disambiguation rows that never got a territory id of their own.
type leafRow struct {
	Parent    *int
	Name      string
	ID        *int
	Buildings int
}

func (r leafRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Parent, r.Name, r.ID, r.Buildings})
}

func (r *leafRow) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("leaf row: %w", err)
	}
	if len(parts) != 4 {
		return fmt.Errorf("leaf row: want 4 elements, got %d: %w", len(parts), types.ErrBadSnapshot)
	}
	targets := []any{&r.Parent, &r.Name, &r.ID, &r.Buildings}
	for i, part := range parts {
		if err := json.Unmarshal(part, targets[i]); err != nil {
			return fmt.Errorf("leaf row[%d]: %w", i, err)
		}
	}
	return nil
}

// SaveRegions writes the leaf regions and every ancestor they reach to
// path. Ancestors must carry ids: a region only acquires children after
// its own listing page was fetched by id.
func SaveRegions(path string, leaves []*types.Region) error {
	parents := make(map[string]parentRow)
	rows := make([]leafRow, 0, len(leaves))

	for _, leaf := range leaves {
		var parentID *int
		if leaf.Parent != nil {
			parentID = leaf.Parent.ID
		}
		rows = append(rows, leafRow{
			Parent:    parentID,
			Name:      leaf.Name,
			ID:        leaf.ID,
			Buildings: leaf.Buildings,
		})

		for node := leaf.Parent; node != nil; node = node.Parent {
			if node.ID == nil {
				return &types.StoreError{
					Target: path,
					Err:    fmt.Errorf("ancestor %q has no id", node.Name),
				}
			}
			var pid *int
			if node.Parent != nil {
				pid = node.Parent.ID
			}
			parents[strconv.Itoa(*node.ID)] = parentRow{
				Parent:    pid,
				Name:      node.Name,
				Buildings: node.Buildings,
			}
		}
	}

	return writeJSON(path, []any{parents, rows})
}

// LoadRegions rebuilds the region tree from path. Ancestor nodes are
// shared: two leaves under the same parent point at the same Region.
func LoadRegions(path string) ([]*types.Region, error) {
	var file []json.RawMessage
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}
	if len(file) != 2 {
		return nil, &types.StoreError{
			Target: path,
			Err:    fmt.Errorf("want 2 sections, got %d: %w", len(file), types.ErrBadSnapshot),
		}
	}

	var parents map[string]parentRow
	if err := json.Unmarshal(file[0], &parents); err != nil {
		return nil, &types.StoreError{Target: path, Err: fmt.Errorf("parent table: %w", err)}
	}
	var rows []leafRow
	if err := json.Unmarshal(file[1], &rows); err != nil {
		return nil, &types.StoreError{Target: path, Err: fmt.Errorf("leaf rows: %w", err)}
	}

	built := make(map[int]*types.Region, len(parents))
	var build func(id int) (*types.Region, error)
	build = func(id int) (*types.Region, error) {
		if region, ok := built[id]; ok {
			return region, nil
		}
		row, ok := parents[strconv.Itoa(id)]
		if !ok {
			return nil, fmt.Errorf("region %d: %w", id, types.ErrMissingParent)
		}
		var parent *types.Region
		if row.Parent != nil {
			var err error
			parent, err = build(*row.Parent)
			if err != nil {
				return nil, err
			}
		}
		idCopy := id
		region := types.NewRegion(parent, row.Name, &idCopy, row.Buildings)
		built[id] = region
		return region, nil
	}

	leaves := make([]*types.Region, 0, len(rows))
	for _, row := range rows {
		var parent *types.Region
		if row.Parent != nil {
			var err error
			parent, err = build(*row.Parent)
			if err != nil {
				return nil, &types.StoreError{Target: path, Err: err}
			}
		}
		leaves = append(leaves, types.NewRegion(parent, row.Name, row.ID, row.Buildings))
	}
	return leaves, nil
}

// IndexRegions maps regions by id for the lookups the listing and profile
// loaders do. Regions without ids are skipped, nothing references them.
func IndexRegions(regions []*types.Region) map[int]*types.Region {
	index := make(map[int]*types.Region, len(regions))
	for _, region := range regions {
		if region.ID != nil {
			index[*region.ID] = region
		}
	}
	return index
}
