package scrape

import (
	"context"

	"github.com/stayscout/stayscout/pkg/listing"
)

// airbnbDOMExtractor reads the rendered Airbnb page. It is the
// supplement to the embedded-state pipeline: it runs over whatever the
// DOM shows when the server payload was missing a field, and never
// overwrites a field the pipeline already resolved.
type airbnbDOMExtractor struct{}

func (airbnbDOMExtractor) Extract(ctx context.Context, p *Page, l *listing.Listing) {
	if l.Title == nil {
		l.Title = stringField(ctx,
			textOf(p, `div[data-section-id="TITLE_DEFAULT"] h1`),
			textOf(p, `h1[elementtiming="LCP-target"]`),
			metaContent(p, "og:title"),
			textOf(p, "h1"),
		)
	}

	if l.Description == nil {
		l.Description = stringField(ctx,
			textOf(p, `div[data-section-id="DESCRIPTION_DEFAULT"]`),
			metaContent(p, "og:description"),
		)
	}

	if l.Price == nil {
		l.Price = numberField(ctx,
			amountOf(p, `div[data-section-id="BOOK_IT_SIDEBAR"] span`),
			amountOf(p, "span._tyxjp1"),
			amountOf(p, `span[data-testid="price-element"]`),
		)
	}

	if l.Bedrooms == nil {
		l.Bedrooms = numberField(ctx,
			numberFrom(textMatching(p, `div[data-section-id="OVERVIEW_DEFAULT_V2"] li`, bedroomRe)),
			numberFrom(textMatching(p, "ol li", bedroomRe)),
			fullTextNumber(p, bedroomRe),
		)
	}

	if l.Bathrooms == nil {
		l.Bathrooms = numberField(ctx,
			numberFrom(textMatching(p, `div[data-section-id="OVERVIEW_DEFAULT_V2"] li`, bathroomRe)),
			numberFrom(textMatching(p, "ol li", bathroomRe)),
			fullTextNumber(p, bathroomRe),
		)
	}

	if l.Sleeps == nil {
		l.Sleeps = numberField(ctx,
			numberFrom(textMatching(p, `div[data-section-id="OVERVIEW_DEFAULT_V2"] li`, guestsAltRe)),
			fullTextNumber(p, guestsRe),
			fullTextNumber(p, guestsAltRe),
		)
	}

	if l.Rating == nil {
		l.Rating = numberField(ctx,
			numberFrom(textMatching(p, `div[data-section-id="REVIEWS_DEFAULT"] span`, ratingRe)),
			numberFrom(textMatching(p, "span", ratingRe)),
		)
	}

	if l.Location == nil {
		l.Location = stringField(ctx,
			textOf(p, `div[data-section-id="LOCATION_DEFAULT"] h2`),
			textOf(p, `span._9xiloll`),
		)
	}

	if len(l.Amenities) == 0 {
		l.Amenities = amenityTexts(p,
			`div[data-section-id="AMENITIES_DEFAULT"] li`,
		)
	}

	if len(l.Images) == 0 {
		l.Images = collectImages(p,
			`div[data-testid="photo-viewer-section"] img`,
			"picture img",
			"img",
		)
	}
}
