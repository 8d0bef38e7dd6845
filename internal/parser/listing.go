package parser

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/gkh-data/domscan/internal/types"
)

var profileHrefPattern = regexp.MustCompile(`^/myhouse/profile/view/(\d+)/`)

// ListingParser extracts building rows from a leaf region's listing page.
type ListingParser struct {
	logger *slog.Logger
}

// NewListingParser creates a new building-listing parser.
func NewListingParser(logger *slog.Logger) *ListingParser {
	return &ListingParser{
		logger: logger.With("component", "listing_parser"),
	}
}

// Parse returns one record per data row of the listing's results table.
// A page without the table is a valid but noteworthy outcome: the region
// is reported and an empty slice comes back with no error, so the batch
// keeps going. Cells carrying the registry's "no data" and "not filled"
// tokens map to nil fields.
func (p *ListingParser) Parse(htmlText string, region *types.Region) ([]types.ListingRecord, error) {
	doc, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return nil, &types.ParseError{Page: listingPage(region), Err: err}
	}

	table, ok := listingTable(doc)
	if !ok {
		p.logger.Warn("listing table missing",
			"region", region.Path(),
			"region_id", regionID(region),
		)
		return nil, nil
	}

	rows, err := htmlquery.QueryAll(table, "//tr")
	if err != nil {
		return nil, &types.ParseError{Page: listingPage(region), Err: err}
	}

	var records []types.ListingRecord
	for i, row := range rows {
		if i == 0 {
			continue // header row
		}
		cells, err := htmlquery.QueryAll(row, "./td")
		if err != nil || len(cells) < 4 {
			continue
		}

		link := htmlquery.FindOne(cells[0], "//a")
		if link == nil {
			continue
		}
		m := profileHrefPattern.FindStringSubmatch(htmlquery.SelectAttr(link, "href"))
		if m == nil {
			p.logger.Debug("address link without profile href",
				"region", region.Path(),
				"href", htmlquery.SelectAttr(link, "href"),
			)
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		address := strings.TrimSpace(htmlquery.InnerText(link))
		year := intCell(p.logger, "year", htmlquery.InnerText(cells[1]))
		area := floatCell(p.logger, "area", htmlquery.InnerText(cells[2]))

		var company *string
		if text := strings.TrimSpace(htmlquery.InnerText(cells[3])); text != "" && text != tokenNotFilled {
			company = &text
		}

		records = append(records, types.ListingRecord{
			Region:  region,
			ID:      id,
			Address: address,
			Year:    year,
			Area:    area,
			Company: company,
		})
	}

	return records, nil
}

// listingTable locates the results table. Its absence means the page shape
// changed or the region simply has no listing; the caller decides how loud
// to be about it.
func listingTable(doc *html.Node) (*html.Node, bool) {
	grid := htmlquery.FindOne(doc, "//div[contains(@class, 'grid')]")
	if grid == nil {
		return nil, false
	}
	table := htmlquery.FindOne(grid, "//table")
	if table == nil {
		return nil, false
	}
	return table, true
}

func listingPage(region *types.Region) string {
	if region == nil {
		return "listing"
	}
	return "listing of " + region.Path()
}

func regionID(region *types.Region) int {
	if region == nil || region.ID == nil {
		return 0
	}
	return *region.ID
}
