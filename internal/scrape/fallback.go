package scrape

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stayscout/stayscout/internal/logger"
	"github.com/stayscout/stayscout/internal/normalize"
	"github.com/stayscout/stayscout/pkg/listing"
)

// Fallback chain for the hardened target when the embedded-state
// pipeline fails: structured-data scan, then legacy client-state
// patterns, then a bare title scrape. Each stage is strictly weaker
// than the last and only runs if the previous one produced no usable
// title. The winning stage's record is taken whole, never merged
// field by field.

var (
	legacyStateMarkers = []string{
		"__INITIAL_STATE__",
		"__NEXT_DATA__",
		"bootstrapData",
		"spaBootstrap",
	}
	jsonNameRe  = regexp.MustCompile(`"(?:name|listingTitle|p3_summary_title)"\s*:\s*"((?:[^"\\]|\\.){3,200})"`)
	jsonPriceRe = regexp.MustCompile(`"(?:price|priceString|amountFormatted)"\s*:\s*"?([$€£]?[0-9][0-9,.]*)`)
)

type fallbackStrategy struct {
	name string
	run  func(ctx context.Context, p *Page) listing.Listing
}

var fallbackChain = []fallbackStrategy{
	{"structured-data", structuredDataFallback},
	{"legacy-state", legacyStateFallback},
	{"title-scrape", titleFallback},
}

// ApplyFallbacks walks the chain and copies the first titled record
// into l. Returns false when every stage came up empty.
func ApplyFallbacks(ctx context.Context, p *Page, l *listing.Listing) bool {
	for _, strategy := range fallbackChain {
		partial := strategy.run(ctx, p)
		if partial.Title == nil || strings.TrimSpace(*partial.Title) == "" {
			continue
		}
		logger.Info("embedded-state fallback succeeded", "strategy", strategy.name)

		l.Title = partial.Title
		l.Description = partial.Description
		l.Price = partial.Price
		l.Bedrooms = partial.Bedrooms
		l.Bathrooms = partial.Bathrooms
		l.Sleeps = partial.Sleeps
		l.Location = partial.Location
		l.Images = partial.Images
		l.Amenities = partial.Amenities
		l.Rating = partial.Rating
		return true
	}
	return false
}

// structuredDataFallback mines JSON-LD blocks in the already-fetched
// document.
func structuredDataFallback(ctx context.Context, p *Page) listing.Listing {
	var out listing.Listing

	out.Title = stringField(ctx,
		ldScan(p, ldName),
		metaContent(p, "og:title"),
	)
	out.Description = stringField(ctx,
		metaContent(p, "og:description"),
		metaContent(p, "description"),
	)
	out.Price = numberField(ctx, numberFrom(ldScan(p, ldPrice)))

	if og, ok := metaContent(p, "og:image")(ctx); ok {
		out.Images = []string{p.Resolve(og)}
	}
	return out
}

// legacyStateFallback scans inline scripts carrying old client-state
// globals for name/price JSON fragments.
func legacyStateFallback(ctx context.Context, p *Page) listing.Listing {
	var out listing.Listing

	p.Doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		body := s.Text()
		if !containsAny(body, legacyStateMarkers) {
			return true
		}
		if m := jsonNameRe.FindStringSubmatch(body); m != nil {
			title := unescapeJSON(m[1])
			out.Title = &title
		}
		if m := jsonPriceRe.FindStringSubmatch(body); m != nil {
			out.Price = normalize.Amount(m[1])
		}
		return out.Title == nil
	})
	return out
}

// titleFallback is the last resort: the document title, the first h1,
// or any name-shaped JSON field in the raw markup.
func titleFallback(ctx context.Context, p *Page) listing.Listing {
	var out listing.Listing
	out.Title = stringField(ctx,
		textOf(p, "h1"),
		textOf(p, "title"),
		func(context.Context) (string, bool) {
			if m := jsonNameRe.FindStringSubmatch(p.HTML); m != nil {
				return unescapeJSON(m[1]), true
			}
			return "", false
		},
	)
	return out
}

func containsAny(s string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

var jsonEscapeReplacer = strings.NewReplacer(`\"`, `"`, `\\`, `\`, `\/`, `/`, `\n`, " ", `\t`, " ")

func unescapeJSON(s string) string {
	return strings.TrimSpace(jsonEscapeReplacer.Replace(s))
}
