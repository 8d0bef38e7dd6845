package types

import (
	"encoding/json"
	"fmt"
)

// The profile snapshot stores every group as a fixed-order JSON array
// rather than an object, so each group type carries its own tuple codec.
// Arity mismatches surface as ErrBadSnapshot: the file cannot be trusted.

// Coordinates is the building's geographic point, read from the profile
// page's embedded map-widget literal. The widget lists latitude first and
// the stored pair keeps that order.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// MarshalJSON encodes the point as [latitude, longitude].
func (c Coordinates) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{c.Latitude, c.Longitude})
}

// UnmarshalJSON decodes a [latitude, longitude] pair.
func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("coordinates: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("coordinates: want 2 elements, got %d: %w", len(pair), ErrBadSnapshot)
	}
	c.Latitude, c.Longitude = pair[0], pair[1]
	return nil
}

// BuildYears groups the two construction dates a profile reports.
type BuildYears struct {
	// Built is the construction year.
	Built *int

	// Opened is the year the building entered service.
	Opened *int
}

// MarshalJSON encodes the group as [built, opened].
func (y BuildYears) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*int{y.Built, y.Opened})
}

// UnmarshalJSON decodes a [built, opened] pair.
func (y *BuildYears) UnmarshalJSON(data []byte) error {
	var parts []*int
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("build years: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("build years: want 2 elements, got %d: %w", len(parts), ErrBadSnapshot)
	}
	y.Built, y.Opened = parts[0], parts[1]
	return nil
}

// FloorRange is the smallest and largest storey count across a building's
// sections. Either bound may be nil.
type FloorRange struct {
	Min *int
	Max *int
}

// MarshalJSON encodes the range as [min, max].
func (f FloorRange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]*int{f.Min, f.Max})
}

// UnmarshalJSON decodes a [min, max] pair.
func (f *FloorRange) UnmarshalJSON(data []byte) error {
	var parts []*int
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("floor range: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("floor range: want 2 elements, got %d: %w", len(parts), ErrBadSnapshot)
	}
	f.Min, f.Max = parts[0], parts[1]
	return nil
}

// Measures groups the physical quantities a profile reports. Every field
// is nil unless the page carried a parseable, non-sentinel value.
type Measures struct {
	Floors     FloorRange
	Apartments *int
	Entrances  *int
	Elevators  *int
	AreaM2     *float64
	ParkingM2  *float64
}

// MarshalJSON encodes the group as
// [[min, max], apartments, entrances, elevators, area, parking].
func (m Measures) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		m.Floors, m.Apartments, m.Entrances, m.Elevators, m.AreaM2, m.ParkingM2,
	})
}

// UnmarshalJSON decodes the six-element measures tuple.
func (m *Measures) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("measures: %w", err)
	}
	if len(parts) != 6 {
		return fmt.Errorf("measures: want 6 elements, got %d: %w", len(parts), ErrBadSnapshot)
	}
	targets := []any{
		&m.Floors, &m.Apartments, &m.Entrances, &m.Elevators, &m.AreaM2, &m.ParkingM2,
	}
	for i, part := range parts {
		if err := json.Unmarshal(part, targets[i]); err != nil {
			return fmt.Errorf("measures[%d]: %w", i, err)
		}
	}
	return nil
}

// Classification groups the categorical and free-text profile fields.
type Classification struct {
	// BuildingType is the registry's house-kind label.
	BuildingType *string

	// Series is the construction series / building type description.
	Series *string

	// CapitalRepair is the capital-repair fund formation scheme.
	CapitalRepair *string

	// Condemned is true or false for an explicit yes/no on the page and
	// nil for anything else.
	Condemned *bool

	// EnergyClass is nil when the page reports the class as not assigned.
	EnergyClass *string
}

// MarshalJSON encodes the group as
// [building_type, series, capital_repair, condemned, energy_class].
func (c Classification) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{
		c.BuildingType, c.Series, c.CapitalRepair, c.Condemned, c.EnergyClass,
	})
}

// UnmarshalJSON decodes the five-element classification tuple.
func (c *Classification) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("classification: %w", err)
	}
	if len(parts) != 5 {
		return fmt.Errorf("classification: want 5 elements, got %d: %w", len(parts), ErrBadSnapshot)
	}
	targets := []any{
		&c.BuildingType, &c.Series, &c.CapitalRepair, &c.Condemned, &c.EnergyClass,
	}
	for i, part := range parts {
		if err := json.Unmarshal(part, targets[i]); err != nil {
			return fmt.Errorf("classification[%d]: %w", i, err)
		}
	}
	return nil
}

// BuildingProfile is the detailed per-building record parsed from the
// building's dedicated profile page. One profile corresponds to one
// ListingRecord by ID.
type BuildingProfile struct {
	// Region is the leaf region the building was listed under.
	Region *Region

	// ID is the registry's building id.
	ID int

	// Coordinates is nil when the profile page has no map widget.
	Coordinates *Coordinates

	// Dates holds the construction and commissioning years.
	Dates BuildYears

	// Measures holds floor counts, unit counts and areas.
	Measures Measures

	// Class holds type, series, repair-fund and energy fields.
	Class Classification
}
