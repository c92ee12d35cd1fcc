package scrape

import (
	"context"
	"testing"

	"github.com/stayscout/stayscout/pkg/listing"
)

func TestApplyFallbacks_StructuredDataWins(t *testing.T) {
	const html = `<html><head>
	<script type="application/ld+json">
	{"@type":"VacationRental","name":"Harborview Loft","offers":{"price":"199"}}
	</script>
	<title>Some Other Page Title</title>
	</head><body><h1>Not This One</h1></body></html>`
	p := mustPage(t, "https://www.airbnb.com/rooms/1", html)

	l := &listing.Listing{URL: p.URL.String(), Source: "Airbnb"}
	if !ApplyFallbacks(context.Background(), p, l) {
		t.Fatal("fallback chain should succeed")
	}

	// The structured-data stage won, so the weaker h1/title stages
	// must not have contributed.
	if l.Title == nil || *l.Title != "Harborview Loft" {
		t.Errorf("title = %v, want Harborview Loft", l.Title)
	}
	if l.Price == nil || *l.Price != 199 {
		t.Errorf("price = %v, want 199", l.Price)
	}
}

func TestApplyFallbacks_LegacyState(t *testing.T) {
	const html = `<html><head><script>
	window.__INITIAL_STATE__ = {"listing":{"name":"Cedar A-Frame","priceString":"$240"}};
	</script></head><body></body></html>`
	p := mustPage(t, "https://www.airbnb.com/rooms/2", html)

	l := &listing.Listing{URL: p.URL.String(), Source: "Airbnb"}
	if !ApplyFallbacks(context.Background(), p, l) {
		t.Fatal("fallback chain should succeed")
	}
	if l.Title == nil || *l.Title != "Cedar A-Frame" {
		t.Errorf("title = %v, want Cedar A-Frame", l.Title)
	}
	if l.Price == nil || *l.Price != 240 {
		t.Errorf("price = %v, want 240", l.Price)
	}
}

func TestApplyFallbacks_TitleScrapeLastResort(t *testing.T) {
	const html = `<html><head><title>Walkable Bungalow - Hosted Stays</title></head><body></body></html>`
	p := mustPage(t, "https://www.airbnb.com/rooms/3", html)

	l := &listing.Listing{URL: p.URL.String(), Source: "Airbnb"}
	if !ApplyFallbacks(context.Background(), p, l) {
		t.Fatal("fallback chain should succeed")
	}
	if l.Title == nil || *l.Title != "Walkable Bungalow - Hosted Stays" {
		t.Errorf("title = %v", l.Title)
	}
}

func TestApplyFallbacks_Exhausted(t *testing.T) {
	p := mustPage(t, "https://www.airbnb.com/rooms/4", "<html><head></head><body></body></html>")

	l := &listing.Listing{URL: p.URL.String(), Source: "Airbnb"}
	if ApplyFallbacks(context.Background(), p, l) {
		t.Error("fallback chain should report exhaustion on an empty page")
	}
}
