package airbnb

import (
	"regexp"

	"github.com/stayscout/stayscout/internal/normalize"
)

// Record is the canonical form of the mined listing payload.
type Record struct {
	Title       string
	Description string
	Location    string
	HostName    string
	Latitude    *float64
	Longitude   *float64
	Sleeps      *float64
	Bedrooms    *float64
	Bathrooms   *float64
	Rating      *float64
	Price       *float64
	Amenities   []string
	Images      []string
}

var (
	bedroomTextRe  = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*bedroom`)
	bathroomTextRe = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*bath`)
)

// standardize maps the raw stay detail object onto Record. The
// upstream schema varies across listing types, so bedroom and
// bathroom counts resolve through an ordered cascade; the first
// non-empty result wins and later steps never overwrite it.
func standardize(detail map[string]any) *Record {
	rec := &Record{}

	sections := digMap(detail, "sections")
	metadata := digMap(sections, "metadata")
	eventData := digMap(metadata, "loggingContext", "eventDataLogging")
	sharing := digMap(metadata, "sharingConfig")

	rec.Title = digString(sharing, "title")
	rec.Location = digString(sharing, "location")

	if lat, ok := digFloat(eventData, "listingLat"); ok {
		rec.Latitude = &lat
	}
	if lng, ok := digFloat(eventData, "listingLng"); ok {
		rec.Longitude = &lng
	}
	if capacity, ok := digFloat(eventData, "personCapacity"); ok {
		rec.Sleeps = &capacity
	}
	if rating, ok := digFloat(eventData, "guestSatisfactionOverall"); ok {
		rec.Rating = &rating
	}

	var overviewTitles []string
	for _, entry := range digSlice(sections, "sections") {
		section := digMap(entry, "section")
		if section == nil {
			continue
		}
		switch digString(entry, "sectionId") {
		case "DESCRIPTION_DEFAULT":
			rec.Description = normalize.StripHTML(digString(section, "htmlDescription", "htmlText"))
		case "LOCATION_DEFAULT":
			if rec.Location == "" {
				rec.Location = digString(section, "subtitle")
			}
		case "HOST_PROFILE_DEFAULT":
			rec.HostName = digString(section, "hostAvatar", "name")
		case "PHOTO_TOUR_SCROLLABLE_MODAL":
			// The photo tour carries the full gallery, base URLs
			// already absolute.
			for _, media := range digSlice(section, "mediaItems") {
				if u := digString(media, "baseUrl"); u != "" {
					rec.Images = append(rec.Images, u)
				}
			}
		case "AMENITIES_DEFAULT":
			// Two-level group structure flattened to item titles.
			for _, group := range digSlice(section, "seeAllAmenitiesGroups") {
				for _, item := range digSlice(group, "amenities") {
					if t := digString(item, "title"); t != "" {
						rec.Amenities = append(rec.Amenities, t)
					}
				}
			}
		case "OVERVIEW_DEFAULT", "OVERVIEW_DEFAULT_V2":
			for _, item := range digSlice(section, "detailItems") {
				if t := digString(item, "title"); t != "" {
					overviewTitles = append(overviewTitles, t)
				}
			}
		case "BOOK_IT_SIDEBAR":
			if price := sidebarPrice(section); price != nil {
				rec.Price = price
			}
		}
	}

	if rec.Title == "" {
		rec.Title = digString(metadata, "seoFeatures", "ogTags", "ogTitle")
	}

	rec.Bedrooms = resolveCount(
		fieldStep(eventData, "bedrooms"),
		fieldStep(eventData, "listingBedrooms"),
		fieldStep(eventData, "numBedrooms"),
		patternStep(bedroomTextRe, overviewTitles),
		patternStep(bedroomTextRe, []string{rec.Description}),
	)
	rec.Bathrooms = resolveCount(
		fieldStep(eventData, "bathrooms"),
		fieldStep(eventData, "listingBathrooms"),
		fieldStep(eventData, "numBathrooms"),
		patternStep(bathroomTextRe, overviewTitles),
		patternStep(bathroomTextRe, []string{rec.Description}),
	)

	return rec
}

// countStep is one rung of the bedroom/bathroom cascade.
type countStep func() (float64, bool)

func resolveCount(steps ...countStep) *float64 {
	for _, step := range steps {
		if v, ok := step(); ok {
			return &v
		}
	}
	return nil
}

func fieldStep(m map[string]any, key string) countStep {
	return func() (float64, bool) {
		return digFloat(m, key)
	}
}

func patternStep(re *regexp.Regexp, texts []string) countStep {
	return func() (float64, bool) {
		for _, text := range texts {
			if m := re.FindStringSubmatch(text); m != nil {
				return normalize.Number(m[1])
			}
		}
		return 0, false
	}
}

// sidebarPrice reads the booking sidebar's primary price line,
// preferring a discounted price over the original.
func sidebarPrice(section map[string]any) *float64 {
	primary := digMap(section, "structuredDisplayPrice", "primaryLine")
	if primary == nil {
		return nil
	}
	for _, key := range []string{"discountedPrice", "price", "originalPrice"} {
		if s := digString(primary, key); s != "" {
			if v := normalize.Amount(s); v != nil {
				return v
			}
		}
	}
	return nil
}
