package normalize

import (
	"testing"
	"time"

	"github.com/stayscout/stayscout/pkg/listing"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"$1,284", listing.Num(1284)},
		{"-$50", listing.Num(-50)},
		{"€2.450", listing.Num(2.450)},
		{"$199/night", listing.Num(199)},
		{"From $1,100 per night", listing.Num(1100)},
		{"", nil},
		{"call for pricing", nil},
	}

	for _, tt := range tests {
		got := Amount(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("Amount(%q) = %v, want nil", tt.in, *got)
		case tt.want != nil && got == nil:
			t.Errorf("Amount(%q) = nil, want %v", tt.in, *tt.want)
		case tt.want != nil && got != nil && *got != *tt.want:
			t.Errorf("Amount(%q) = %v, want %v", tt.in, *got, *tt.want)
		}
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"3.5 baths", 3.5, true},
		{"Sleeps 8", 8, true},
		{"1,200 sq ft", 1200, true},
		{"no numbers here", 0, false},
	}

	for _, tt := range tests {
		got, ok := Number(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Number(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStripHTML(t *testing.T) {
	in := "<p>Cozy <b>cabin</b> &amp; hot tub &#39;retreat&#39;</p>\n\n<p>Near   trails</p>"
	want := "Cozy cabin & hot tub 'retreat' Near trails"
	if got := StripHTML(in); got != want {
		t.Errorf("StripHTML() = %q, want %q", got, want)
	}
}

func TestApply_DropsEmptiesAndDedupesImages(t *testing.T) {
	title := "<h1>Lake House</h1>"
	empty := "   "
	l := &listing.Listing{
		URL:       "https://example.com/1",
		Source:    "Example",
		Title:     &title,
		Location:  &empty,
		Images:    []string{"https://x/room1.jpg", "https://x/room1.jpg", "https://x/room2.jpg"},
		Amenities: []string{"WiFi", "  ", "Pool"},
		ScrapedAt: time.Now(),
	}

	Apply(l)

	if l.Title == nil || *l.Title != "Lake House" {
		t.Errorf("title = %v, want Lake House", l.Title)
	}
	if l.Location != nil {
		t.Errorf("blank location should become nil, got %q", *l.Location)
	}
	if len(l.Images) != 2 {
		t.Errorf("images = %v, want 2 deduplicated entries", l.Images)
	}
	if len(l.Amenities) != 2 {
		t.Errorf("amenities = %v, want 2 entries", l.Amenities)
	}
}
