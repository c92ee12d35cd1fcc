package scrape

import (
	"context"

	"github.com/stayscout/stayscout/pkg/listing"
)

// vrboExtractor reads VRBO property pages. VRBO tags its markup with
// data-stid attributes, which are far more stable than class names;
// semantic HTML and meta tags are the trailing candidates.
type vrboExtractor struct{}

func (vrboExtractor) Extract(ctx context.Context, p *Page, l *listing.Listing) {
	l.Title = stringField(ctx,
		textOf(p, `h1[data-stid="content-hotel-title"]`),
		textOf(p, "h1.uitk-heading-3"),
		metaContent(p, "og:title"),
		textOf(p, "h1"),
	)

	l.Description = stringField(ctx,
		textOf(p, `div[data-stid="content-markup"]`),
		metaContent(p, "og:description"),
		metaContent(p, "description"),
	)

	l.Price = numberField(ctx,
		amountOf(p, `div[data-stid="price-summary"]`),
		amountOf(p, `span[data-stid="price-lockup-text"]`),
		amountOf(p, ".price-summary"),
	)

	l.Bedrooms = numberField(ctx,
		numberFrom(textMatching(p, `div[data-stid="content-item"]`, bedroomRe)),
		numberFrom(textMatching(p, "li", bedroomRe)),
		fullTextNumber(p, bedroomRe),
	)

	l.Bathrooms = numberField(ctx,
		numberFrom(textMatching(p, `div[data-stid="content-item"]`, bathroomRe)),
		numberFrom(textMatching(p, "li", bathroomRe)),
		fullTextNumber(p, bathroomRe),
	)

	l.Sleeps = numberField(ctx,
		numberFrom(textMatching(p, `div[data-stid="content-item"]`, guestsRe)),
		fullTextNumber(p, guestsRe),
		fullTextNumber(p, guestsAltRe),
	)

	l.Rating = numberField(ctx,
		numberOf(p, `span[data-stid="content-review-summary-rating"]`),
		numberFrom(textMatching(p, "span", ratingRe)),
	)

	l.Location = stringField(ctx,
		textOf(p, `div[data-stid="content-hotel-address"]`),
		metaContent(p, "og:locality"),
	)

	l.Amenities = amenityTexts(p,
		`div[data-stid="content-amenity"]`,
		`div[data-stid="amenity-item"]`,
	)

	l.Images = collectImages(p,
		`img[data-stid="property-gallery-image"]`,
		"section img",
		"img",
	)
}
