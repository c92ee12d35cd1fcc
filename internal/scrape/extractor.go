package scrape

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stayscout/stayscout/pkg/listing"
)

// Extractor populates listing fields from a loaded page. Every field
// lookup is independently best-effort; an extractor never fails the
// scrape, it just leaves fields nil.
type Extractor interface {
	Extract(ctx context.Context, p *Page, l *listing.Listing)
}

// ForPlatform returns the extractor encoding that platform's layout
// knowledge. Unknown hosts get the generic extractor.
func ForPlatform(pl Platform) Extractor {
	switch pl {
	case PlatformVRBO:
		return vrboExtractor{}
	case PlatformBooking:
		return bookingExtractor{}
	case PlatformAirbnb:
		return airbnbDOMExtractor{}
	default:
		return genericExtractor{}
	}
}

// ContentSelector is the selector whose appearance signals real
// listing markup behind a bot interstitial.
func ContentSelector(pl Platform) string {
	switch pl {
	case PlatformVRBO:
		return `h1[data-stid="content-hotel-title"]`
	case PlatformBooking:
		return `h2[data-testid="title"]`
	case PlatformAirbnb:
		return `div[data-section-id="TITLE_DEFAULT"]`
	default:
		return "h1"
	}
}

// Free-text patterns for capacity fields, tolerant of plural forms
// and "3.5 bath" style fractions.
var (
	bedroomRe  = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*(?:bedroom|bed)s?\b`)
	bathroomRe = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*(?:bathroom|bath)s?\b`)
	guestsRe   = regexp.MustCompile(`(?i)(?:sleeps|accommodates)\s*([0-9]+)`)
	guestsAltRe = regexp.MustCompile(`(?i)([0-9]+)\s*guests?\b`)
	ratingRe   = regexp.MustCompile(`([0-9](?:\.[0-9]+)?)\s*(?:out of 5|/\s*5|stars?)`)
	currencyRe = regexp.MustCompile(`[$€£]\s*[0-9][0-9,]*(?:\.[0-9]{1,2})?`)
)

// fullTextNumber probes the whole visible page text with re. Last
// resort when structured selectors fail.
func fullTextNumber(p *Page, re *regexp.Regexp) probeFn[float64] {
	return numberFrom(func(ctx context.Context) (string, bool) {
		m := re.FindStringSubmatch(p.Text())
		if m == nil {
			return "", false
		}
		return m[1], true
	})
}

// amenityTexts collects short text entries from the first selector
// that yields any, skipping anything too long to be an amenity label.
func amenityTexts(p *Page, selectors ...string) []string {
	for _, selector := range selectors {
		var items []string
		p.Doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" && len(text) <= 60 {
				items = append(items, text)
			}
		})
		if len(items) > 0 {
			return items
		}
	}
	return nil
}
