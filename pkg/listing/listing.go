// Package listing defines the canonical rental listing record produced
// by the extraction engine.
package listing

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Listing is the normalized result of scraping one rental property
// page. URL and Source are always set; every other field is
// best-effort and nil when the source page did not yield it.
// A Listing is immutable once returned by the engine.
type Listing struct {
	URL         string   `json:"url" validate:"required,url"`
	Source      string   `json:"source" validate:"required"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Bedrooms    *float64 `json:"bedrooms,omitempty"`
	Bathrooms   *float64 `json:"bathrooms,omitempty"`
	Sleeps      *float64 `json:"sleeps,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Images      []string `json:"images,omitempty"`
	Amenities   []string `json:"amenities,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	ScrapedAt   time.Time `json:"scrapedAt" validate:"required"`
}

var validate = validator.New()

// Validate checks the invariant fields. Optional fields are never
// validated; partial extraction is a valid outcome.
func (l *Listing) Validate() error {
	return validate.Struct(l)
}

// Str returns a pointer to s, or nil when s is empty. Extractors use
// it to collapse empty-string lookups to absent fields.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Num returns a pointer to f.
func Num(f float64) *float64 {
	return &f
}
