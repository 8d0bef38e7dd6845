package parser

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gkh-data/domscan/internal/types"
)

var tidPattern = regexp.MustCompile(`tid=(\d+)`)

// RegionParser extracts child-region rows from a hierarchy listing page.
type RegionParser struct {
	logger *slog.Logger
}

// NewRegionParser creates a new region-row parser.
func NewRegionParser(logger *slog.Logger) *RegionParser {
	return &RegionParser{
		logger: logger.With("component", "region_parser"),
	}
}

// Parse returns the regions listed on the page as children of parent.
// Each region lives in a tr.left row holding its link; the building count
// sits in a span of the immediately following sibling row, not the row
// itself. A link without an href is a disambiguation label: it still
// yields a named pseudo-region, with a nil id.
func (p *RegionParser) Parse(html string, parent *types.Region) ([]*types.Region, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &types.ParseError{Page: regionPage(parent), Err: err}
	}

	var regions []*types.Region
	doc.Find("tr.left").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a").First()
		if link.Length() == 0 {
			return
		}

		var id *int
		if href, ok := link.Attr("href"); ok {
			m := tidPattern.FindStringSubmatch(href)
			if m == nil {
				p.logger.Debug("region link without tid", "href", href)
				return
			}
			v, err := strconv.Atoi(m[1])
			if err != nil {
				p.logger.Debug("region link with malformed tid", "href", href)
				return
			}
			id = &v
		}

		name := link.Text()

		buildings := 0
		count := row.Next().Find("span").First().Text()
		if v, err := parseInt(count); err == nil {
			buildings = v
		} else {
			p.logger.Warn("region row without building count",
				"region", name,
				"value", count,
			)
		}

		regions = append(regions, types.NewRegion(parent, name, id, buildings))
	})

	return regions, nil
}

func regionPage(parent *types.Region) string {
	if parent == nil {
		return "root region listing"
	}
	return "region listing " + parent.Path()
}
