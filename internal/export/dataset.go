package export

import (
	"log/slog"
	"math/rand"
	"strconv"

	"github.com/gkh-data/domscan/internal/types"
)

// Builder accumulates dataset rows from profile snapshots. Buildings
// without coordinates cannot be mapped and are dropped; buildings sharing
// an exact coordinate pair collapse to the first one seen, which folds
// multi-entry complexes into a single point.
type Builder struct {
	rows    []Row
	seen    map[types.Coordinates]bool
	skipped int
	logger  *slog.Logger
}

// NewBuilder creates an empty dataset builder.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{
		seen:   make(map[types.Coordinates]bool),
		logger: logger.With("component", "dataset"),
	}
}

// Add projects one profile into the dataset. It reports whether the
// profile produced a row.
func (b *Builder) Add(profile *types.BuildingProfile) bool {
	coords := profile.Coordinates
	if coords == nil || b.seen[*coords] {
		b.skipped++
		return false
	}
	b.seen[*coords] = true

	row := Row{
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
	}
	// The commissioning year drives the dataset timeline; values outside
	// the registry's credible range are treated as unknown.
	if year := profile.Dates.Opened; year != nil && 1900 <= *year && *year <= 2015 {
		s := strconv.Itoa(*year)
		row.Year = &s
	}
	row.Floors = binFloors(profile.Measures.Floors.Max)
	if apartments := profile.Measures.Apartments; apartments != nil {
		s := strconv.Itoa(*apartments)
		row.Apartments = &s
	}
	if parking := profile.Measures.ParkingM2; parking != nil {
		has := *parking > 0
		row.Parking = &has
	}
	row.Condemned = profile.Class.Condemned
	row.Energy = profile.Class.EnergyClass

	b.rows = append(b.rows, row)
	return true
}

// Len is the number of rows accumulated so far.
func (b *Builder) Len() int { return len(b.rows) }

// Skipped is the number of profiles dropped for missing or duplicate
// coordinates.
func (b *Builder) Skipped() int { return b.skipped }

// Rows returns the accumulated rows without sampling.
func (b *Builder) Rows() []Row { return b.rows }

// Sample returns at most cap rows, drawn uniformly without replacement.
// When the dataset fits under cap it is returned whole, in build order.
func (b *Builder) Sample(cap int) []Row {
	if cap >= len(b.rows) {
		return b.rows
	}
	b.logger.Info("sampling dataset", "rows", len(b.rows), "cap", cap)
	sampled := make([]Row, len(b.rows))
	copy(sampled, b.rows)
	rand.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	return sampled[:cap]
}

// binFloors folds the storey count into the dataset's height classes. The
// five and nine storey buildings keep their own class, those are the
// Soviet mass-construction series that dominate the stock.
func binFloors(max *int) *string {
	if max == nil {
		return nil
	}
	var class string
	switch {
	case *max < 5:
		class = "1..4"
	case *max == 5:
		class = "5"
	case *max < 9:
		class = "6..8"
	case *max == 9:
		class = "9"
	default:
		class = ">9"
	}
	return &class
}
