// Package normalize produces the canonical listing shape: plain-text
// descriptions, numeric coercion, empty fields dropped to nil.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stayscout/stayscout/pkg/listing"
)

var (
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)
	digitRe  = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)
	numberRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)`)
)

// entityReplacer decodes the five entities common in listing
// descriptions. Anything more exotic is left alone.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// StripHTML removes tags, decodes common entities and collapses
// whitespace, turning markup into readable plain text.
func StripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = entityReplacer.Replace(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Amount extracts a numeric amount from formatted currency text such
// as "$1,284/night". Thousands separators are stripped, the first
// digit run is the magnitude, and a leading minus in the original
// text makes it negative. Returns nil when no digits are present;
// malformed price text is never an error.
func Amount(s string) *float64 {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}

	cleaned := strings.ReplaceAll(trimmed, ",", "")
	match := digitRe.FindString(cleaned)
	if match == "" {
		return nil
	}

	value := parseFloat(match)

	if strings.HasPrefix(trimmed, "-") {
		value = -value
	}
	return &value
}

// Number returns the first decimal number appearing in s, for text
// like "3.5 baths" or "Sleeps 8".
func Number(s string) (float64, bool) {
	match := numberRe.FindString(strings.ReplaceAll(s, ",", ""))
	if match == "" {
		return 0, false
	}
	return parseFloat(match), true
}

func parseFloat(s string) float64 {
	// The regexp guarantees a valid float literal.
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// Apply is the final normalization pass over an extracted listing:
// descriptions become plain text, empty strings become nil, and the
// image list is deduplicated preserving order.
func Apply(l *listing.Listing) {
	if l.Title != nil {
		if t := StripHTML(*l.Title); t == "" {
			l.Title = nil
		} else {
			l.Title = &t
		}
	}
	if l.Description != nil {
		if d := StripHTML(*l.Description); d == "" {
			l.Description = nil
		} else {
			l.Description = &d
		}
	}
	if l.Location != nil {
		if loc := strings.TrimSpace(*l.Location); loc == "" {
			l.Location = nil
		} else {
			l.Location = &loc
		}
	}

	if len(l.Images) > 0 {
		seen := make(map[string]bool, len(l.Images))
		images := l.Images[:0]
		for _, img := range l.Images {
			img = strings.TrimSpace(img)
			if img == "" || seen[img] {
				continue
			}
			seen[img] = true
			images = append(images, img)
		}
		l.Images = images
	}

	amenities := l.Amenities[:0]
	for _, a := range l.Amenities {
		if a = strings.TrimSpace(a); a != "" {
			amenities = append(amenities, a)
		}
	}
	if len(amenities) == 0 {
		l.Amenities = nil
	} else {
		l.Amenities = amenities
	}
}
