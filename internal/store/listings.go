package store

import (
	"encoding/json"
	"fmt"

	"github.com/gkh-data/domscan/internal/types"
)

// The listing file is a two-element array: the company intern table and
// the row list. Company names repeat across thousands of rows, so rows
// carry an id and the table maps each name to the index of the first row
// that mentioned it.
//
//	[{"ООО УК Город": 0},
//	 [[2208300, 8096437, "ул. Ленина, д. 1", 1970, 3394.6, 0], ...]]

// listingRow is one building: [region_id, id, address, year, area, company_id].
type listingRow struct {
	Region  *int
	ID      int
	Address string
	Year    *int
	Area    *float64
	Company *int
}

func (r listingRow) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Region, r.ID, r.Address, r.Year, r.Area, r.Company})
}

func (r *listingRow) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("listing row: %w", err)
	}
	if len(parts) != 6 {
		return fmt.Errorf("listing row: want 6 elements, got %d: %w", len(parts), types.ErrBadSnapshot)
	}
	targets := []any{&r.Region, &r.ID, &r.Address, &r.Year, &r.Area, &r.Company}
	for i, part := range parts {
		if err := json.Unmarshal(part, targets[i]); err != nil {
			return fmt.Errorf("listing row[%d]: %w", i, err)
		}
	}
	return nil
}

// SaveListings writes the listing records to path, interning company
// names on the way.
func SaveListings(path string, records []types.ListingRecord) error {
	companies := make(map[string]int)
	rows := make([]listingRow, 0, len(records))

	for i, record := range records {
		var companyID *int
		if record.Company != nil {
			id, ok := companies[*record.Company]
			if !ok {
				id = i
				companies[*record.Company] = i
			}
			companyID = &id
		}
		var regionID *int
		if record.Region != nil {
			regionID = record.Region.ID
		}
		rows = append(rows, listingRow{
			Region:  regionID,
			ID:      record.ID,
			Address: record.Address,
			Year:    record.Year,
			Area:    record.Area,
			Company: companyID,
		})
	}

	return writeJSON(path, []any{companies, rows})
}

// LoadListings reads the listing records from path, resolving rows back
// onto the given regions. A row naming a region that is not in regions
// fails with ErrMissingRegion: the two stage files are out of step.
func LoadListings(path string, regions []*types.Region) ([]types.ListingRecord, error) {
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

	var companies map[string]int
	if err := json.Unmarshal(file[0], &companies); err != nil {
		return nil, &types.StoreError{Target: path, Err: fmt.Errorf("company table: %w", err)}
	}
	var rows []listingRow
	if err := json.Unmarshal(file[1], &rows); err != nil {
		return nil, &types.StoreError{Target: path, Err: fmt.Errorf("rows: %w", err)}
	}

	names := make(map[int]string, len(companies))
	for name, id := range companies {
		names[id] = name
	}
	index := IndexRegions(regions)

	records := make([]types.ListingRecord, 0, len(rows))
	for _, row := range rows {
		if row.Region == nil {
			return nil, &types.StoreError{
				Target: path,
				Err:    fmt.Errorf("building %d: %w", row.ID, types.ErrMissingRegion),
			}
		}
		region, ok := index[*row.Region]
		if !ok {
			return nil, &types.StoreError{
				Target: path,
				Err:    fmt.Errorf("region %d: %w", *row.Region, types.ErrMissingRegion),
			}
		}

		var company *string
		if row.Company != nil {
			name, ok := names[*row.Company]
			if !ok {
				return nil, &types.StoreError{
					Target: path,
					Err:    fmt.Errorf("company %d not in table: %w", *row.Company, types.ErrBadSnapshot),
				}
			}
			company = &name
		}

		records = append(records, types.ListingRecord{
			Region:  region,
			ID:      row.ID,
			Address: row.Address,
			Year:    row.Year,
			Area:    row.Area,
			Company: company,
		})
	}
	return records, nil
}
