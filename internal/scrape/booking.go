package scrape

import (
	"context"

	"github.com/stayscout/stayscout/pkg/listing"
)

// bookingExtractor reads Booking.com property pages, leaning on
// data-testid attributes first.
type bookingExtractor struct{}

func (bookingExtractor) Extract(ctx context.Context, p *Page, l *listing.Listing) {
	l.Title = stringField(ctx,
		textOf(p, `h2[data-testid="title"]`),
		textOf(p, ".pp-header__title"),
		metaContent(p, "og:title"),
		textOf(p, "h1"),
	)

	l.Description = stringField(ctx,
		textOf(p, `div[data-testid="property-description"]`),
		textOf(p, "#property_description_content"),
		metaContent(p, "og:description"),
		metaContent(p, "description"),
	)

	l.Price = numberField(ctx,
		amountOf(p, `span[data-testid="price-and-discounted-price"]`),
		amountOf(p, ".prco-valign-middle-helper"),
		amountOf(p, ".bui-price-display__value"),
	)

	l.Bedrooms = numberField(ctx,
		numberFrom(textMatching(p, `div[data-testid="property-highlights"] li`, bedroomRe)),
		fullTextNumber(p, bedroomRe),
	)

	l.Bathrooms = numberField(ctx,
		numberFrom(textMatching(p, `div[data-testid="property-highlights"] li`, bathroomRe)),
		fullTextNumber(p, bathroomRe),
	)

	l.Sleeps = numberField(ctx,
		fullTextNumber(p, guestsRe),
		fullTextNumber(p, guestsAltRe),
	)

	// Booking publishes a 0-10 review score, kept as-is.
	l.Rating = numberField(ctx,
		numberOf(p, `div[data-testid="review-score"] div`),
		numberOf(p, ".bui-review-score__badge"),
	)

	l.Location = stringField(ctx,
		textOf(p, `span[data-testid="address"]`),
		textOf(p, ".hp_address_subtitle"),
	)

	l.Amenities = amenityTexts(p,
		`div[data-testid="property-most-popular-facilities-wrapper"] li`,
		".hotel-facilities-group li",
	)

	l.Images = collectImages(p,
		`a[data-fancybox="gallery"] img`,
		".bh-photo-grid img",
		"img",
	)
}
