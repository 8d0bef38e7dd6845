package parser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/gkh-data/domscan/internal/types"
)

// The profile page is scraped with regular expressions rather than a DOM
// walk: the data sits in repeated two-row label/value groups and in an
// inline map-widget script, both of which are more stable as text patterns
// than as tree paths.
var (
	placemarkPattern = regexp.MustCompile(
		`var myPlacemark = new ymaps\.Placemark\(\s+\[([\d.]+),([\d.]+)\]`)
	pairPattern      = regexp.MustCompile(`(?s)<tr class="left".*?>(.+?)</tr>\s+<tr.*?>(.+?)</tr>`)
	labelSpanPattern = regexp.MustCompile(`<span.*?>(.+?)</span>`)
	valueSpanPattern = regexp.MustCompile(`(?s)<span.*?>(.+?)</span>`)
)

// Profile field labels as the registry prints them.
const (
	labelYearBuilt  = "Год постройки"
	labelYearOpened = "Год ввода дома в эксплуатацию"

	labelFloorsMin  = "наименьшее, ед."
	labelFloorsMax  = "наибольшее, ед."
	labelApartments = "Количество помещений, в том числе:"
	labelEntrances  = "Количество подъездов, ед."
	labelElevators  = "Количество лифтов, ед."
	labelArea       = "Общая площадь дома, кв.м"
	labelParking    = "площадь парковки в границах земельного участка, кв.м"

	labelBuildingType = "Тип дома"
	labelSeries       = "Серия, тип постройки здания"
	labelCapital      = "Способ формирования фонда капитального ремонта"
	labelCondemned    = "Дом признан аварийным"
	labelEnergy       = "Класс энергетической эффективности"
)

// ProfileParser extracts a typed BuildingProfile from a profile page.
type ProfileParser struct {
	logger *slog.Logger
}

// NewProfileParser creates a new profile parser.
func NewProfileParser(logger *slog.Logger) *ProfileParser {
	return &ProfileParser{
		logger: logger.With("component", "profile_parser"),
	}
}

// Parse extracts the profile for one building. Labels the parser does not
// know are ignored, so extra fields on the site cost nothing. A page with
// neither data rows nor a map widget has lost its shape entirely and comes
// back as ErrProfileShape; callers skip the building and move on.
func (p *ProfileParser) Parse(html string, region *types.Region, id int) (*types.BuildingProfile, error) {
	data := p.pageData(html)
	coords := p.coordinates(html)

	if len(data) == 0 && coords == nil {
		return nil, &types.ParseError{
			Page: fmt.Sprintf("profile %d", id),
			Err:  types.ErrProfileShape,
		}
	}

	return &types.BuildingProfile{
		Region:      region,
		ID:          id,
		Coordinates: coords,
		Dates: types.BuildYears{
			Built:  intField(p.logger, data, labelYearBuilt),
			Opened: intField(p.logger, data, labelYearOpened),
		},
		Measures: types.Measures{
			Floors: types.FloorRange{
				Min: intField(p.logger, data, labelFloorsMin),
				Max: intField(p.logger, data, labelFloorsMax),
			},
			Apartments: intField(p.logger, data, labelApartments),
			Entrances:  intField(p.logger, data, labelEntrances),
			Elevators:  intField(p.logger, data, labelElevators),
			AreaM2:     floatField(p.logger, data, labelArea),
			ParkingM2:  floatField(p.logger, data, labelParking),
		},
		Class: types.Classification{
			BuildingType:  data[labelBuildingType],
			Series:        data[labelSeries],
			CapitalRepair: data[labelCapital],
			Condemned:     condemned(data[labelCondemned]),
			EnergyClass:   energyClass(data[labelEnergy]),
		},
	}, nil
}

// pageData collects the label/value pairs from the profile's two-row
// groups. A label present with a nil value was explicitly "not filled".
func (p *ProfileParser) pageData(html string) map[string]*string {
	data := make(map[string]*string)
	for _, match := range pairPattern.FindAllStringSubmatch(html, -1) {
		labelHTML, valueHTML := match[1], match[2]

		lm := labelSpanPattern.FindStringSubmatch(labelHTML)
		if lm == nil {
			continue
		}
		vm := valueSpanPattern.FindStringSubmatch(valueHTML)
		if vm == nil {
			continue
		}

		label := lm[1]
		value := strings.TrimSpace(vm[1])
		if value == tokenNotFilled {
			data[label] = nil
			continue
		}
		data[label] = &value
	}
	return data
}

// coordinates pulls the building's point out of the map-widget literal.
// The widget passes the pair latitude-first.
func (p *ProfileParser) coordinates(html string) *types.Coordinates {
	m := placemarkPattern.FindStringSubmatch(html)
	if m == nil {
		return nil
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		p.logger.Warn("unparseable placemark coordinate", "value", m[1])
		return nil
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		p.logger.Warn("unparseable placemark coordinate", "value", m[2])
		return nil
	}
	return &types.Coordinates{Latitude: lat, Longitude: lon}
}

// condemned maps the explicit yes/no pair to a boolean and anything else,
// including absence, to nil.
func condemned(value *string) *bool {
	if value == nil {
		return nil
	}
	var b bool
	switch *value {
	case tokenYes:
		b = true
	case tokenNo:
		b = false
	default:
		return nil
	}
	return &b
}

// energyClass passes the class through, mapping "not assigned" to nil.
func energyClass(value *string) *string {
	if value == nil || *value == tokenNotAssigned {
		return nil
	}
	return value
}
