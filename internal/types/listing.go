package types

// ListingRecord is one data row of a leaf region's building listing page.
type ListingRecord struct {
	// Region is the leaf region whose listing produced this row.
	// The record references the region, it does not own it.
	Region *Region

	// ID is the registry's building id, extracted from the address link.
	ID int

	// Address is the building's display address.
	Address string

	// Year is the reported construction year, nil when the cell carries
	// the "no data" token.
	Year *int

	// Area is the total area in square meters, nil on "no data".
	Area *float64

	// Company is the managing company's free-text name, nil when the
	// cell carries the "not filled" token.
	Company *string
}
