package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stayscout/stayscout/internal/normalize"
	"github.com/stayscout/stayscout/pkg/listing"
)

// genericExtractor handles unknown rental sites using only semantic
// HTML, Open Graph metadata, JSON-LD structured data and free-text
// patterns. Price recovery order: OG meta, JSON-LD offers, currency
// symbol over visible text.
type genericExtractor struct{}

func (genericExtractor) Extract(ctx context.Context, p *Page, l *listing.Listing) {
	l.Title = stringField(ctx,
		metaContent(p, "og:title"),
		ldScan(p, ldName),
		textOf(p, "h1"),
		textOf(p, "title"),
	)

	l.Description = stringField(ctx,
		metaContent(p, "og:description"),
		metaContent(p, "description"),
		textOf(p, `[itemprop="description"]`),
	)

	l.Price = numberField(ctx,
		numberFrom(metaContent(p, "product:price:amount")),
		numberFrom(metaContent(p, "og:price:amount")),
		numberFrom(ldScan(p, ldPrice)),
		visibleCurrency(p),
	)

	l.Bedrooms = numberField(ctx,
		numberOf(p, `[itemprop="numberOfBedrooms"]`),
		fullTextNumber(p, bedroomRe),
	)

	l.Bathrooms = numberField(ctx,
		numberOf(p, `[itemprop="numberOfBathroomsTotal"]`),
		fullTextNumber(p, bathroomRe),
	)

	l.Sleeps = numberField(ctx,
		fullTextNumber(p, guestsRe),
		fullTextNumber(p, guestsAltRe),
	)

	l.Rating = numberField(ctx,
		numberFrom(attrOf(p, `[itemprop="ratingValue"]`, "content")),
		numberOf(p, `[itemprop="ratingValue"]`),
		numberFrom(textMatching(p, "span", ratingRe)),
	)

	l.Location = stringField(ctx,
		textOf(p, `[itemprop="address"]`),
		metaContent(p, "geo.placename"),
		metaContent(p, "og:locality"),
	)

	images := collectImages(p, "img")
	if og, ok := metaContent(p, "og:image")(ctx); ok {
		images = append([]string{p.Resolve(og)}, images...)
		images = dedupe(images, maxImages)
	}
	l.Images = wideImages(ctx, p, images)
}

// visibleCurrency scans the page text for the first currency-symbol
// amount. Weakest price signal, tried last.
func visibleCurrency(p *Page) probeFn[float64] {
	return func(context.Context) (float64, bool) {
		m := currencyRe.FindString(p.Text())
		if m == "" {
			return 0, false
		}
		if v := normalize.Amount(m); v != nil {
			return *v, true
		}
		return 0, false
	}
}

func dedupe(urls []string, limit int) []string {
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
		if len(out) == limit {
			break
		}
	}
	return out
}

// ldMaxDepth bounds the JSON-LD walk against pathological nesting.
const ldMaxDepth = 6

// ldScan walks every JSON-LD block on the page, applying extract to
// each object node until one yields a value.
func ldScan(p *Page, extract func(map[string]any) (string, bool)) probeFn[string] {
	return func(context.Context) (string, bool) {
		var found string
		p.Doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			var doc any
			if err := json.Unmarshal([]byte(s.Text()), &doc); err != nil {
				return true
			}
			if v, ok := ldWalk(doc, ldMaxDepth, extract); ok {
				found = v
				return false
			}
			return true
		})
		return found, found != ""
	}
}

func ldWalk(v any, depth int, extract func(map[string]any) (string, bool)) (string, bool) {
	if depth < 0 {
		return "", false
	}
	switch node := v.(type) {
	case map[string]any:
		if out, ok := extract(node); ok {
			return out, true
		}
		for _, child := range node {
			if out, ok := ldWalk(child, depth-1, extract); ok {
				return out, true
			}
		}
	case []any:
		for _, child := range node {
			if out, ok := ldWalk(child, depth-1, extract); ok {
				return out, true
			}
		}
	}
	return "", false
}

// listing-ish JSON-LD types worth trusting for a name.
var ldListingTypes = map[string]bool{
	"Product": true, "Accommodation": true, "Apartment": true,
	"House": true, "Hotel": true, "LodgingBusiness": true,
	"VacationRental": true, "Place": true,
}

func ldName(m map[string]any) (string, bool) {
	if !ldTypeMatches(m, ldListingTypes) {
		return "", false
	}
	name, _ := m["name"].(string)
	name = strings.TrimSpace(name)
	return name, name != ""
}

func ldPrice(m map[string]any) (string, bool) {
	offers, ok := m["offers"]
	if !ok {
		return "", false
	}
	candidates := []any{offers}
	if arr, ok := offers.([]any); ok {
		candidates = arr
	}
	for _, c := range candidates {
		offer, ok := c.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"price", "lowPrice"} {
			switch v := offer[key].(type) {
			case string:
				if strings.TrimSpace(v) != "" {
					return v, true
				}
			case float64:
				return fmt.Sprintf("%g", v), true
			}
		}
	}
	return "", false
}

func ldTypeMatches(m map[string]any, types map[string]bool) bool {
	switch t := m["@type"].(type) {
	case string:
		return types[t]
	case []any:
		for _, entry := range t {
			if s, ok := entry.(string); ok && types[s] {
				return true
			}
		}
	}
	return false
}
