// Package scrape turns a rental listing URL into a normalized record,
// dispatching per-platform extractors over a hardened browser session.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stayscout/stayscout/internal/airbnb"
	"github.com/stayscout/stayscout/internal/browser"
	"github.com/stayscout/stayscout/internal/fetch"
	"github.com/stayscout/stayscout/internal/geocode"
	"github.com/stayscout/stayscout/internal/logger"
	"github.com/stayscout/stayscout/internal/normalize"
	"github.com/stayscout/stayscout/pkg/listing"
)

// ErrExtraction means every extraction strategy was exhausted without
// even a title. Anything short of that returns a partial listing.
var ErrExtraction = errors.New("listing extraction failed")

// Config holds scraper settings.
type Config struct {
	Browser browser.Config

	// StaticFallback permits a plain-HTTP fetch when no Chrome binary
	// is available. Challenge handling and live-DOM probes degrade.
	StaticFallback bool

	UserAgent string
}

// Scraper is the extraction engine. Safe for concurrent use; each
// request gets its own browser session.
type Scraper struct {
	cfg      Config
	geocoder *geocode.Resolver
	pricer   *airbnb.PriceClient
	static   *fetch.Static
}

// New creates a Scraper. The geocoder and pricer may be nil, in which
// case those augmentation stages are skipped.
func New(cfg Config, geocoder *geocode.Resolver, pricer *airbnb.PriceClient) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "stayscout/1.0 (rental listing fetcher)"
	}
	return &Scraper{
		cfg:      cfg,
		geocoder: geocoder,
		pricer:   pricer,
		static:   fetch.NewStatic(cfg.Browser.UserAgent, 30*time.Second),
	}
}

// ExtractListing scrapes one listing URL. It returns an error only
// for an invalid URL, a browser launch failure, a navigation timeout,
// or an Airbnb page that defeated the whole fallback chain; missing
// fields are never an error.
func (s *Scraper) ExtractListing(ctx context.Context, rawURL string) (*listing.Listing, error) {
	platform, source, err := Detect(rawURL)
	if err != nil {
		return nil, err
	}

	l := &listing.Listing{
		URL:       rawURL,
		Source:    source,
		ScrapedAt: time.Now().UTC(),
	}

	log := logger.With("url", rawURL, "platform", platform.String())
	log.Info("extraction started")

	page, cookies, done, err := s.loadPage(ctx, rawURL, platform)
	if err != nil {
		return nil, err
	}
	defer done()

	if platform == PlatformAirbnb {
		if err := s.extractAirbnb(ctx, page, cookies, l); err != nil {
			return nil, err
		}
	} else {
		runExtractor(ctx, ForPlatform(platform), page, l)
	}

	normalize.Apply(l)
	log.Info("extraction finished",
		"title", l.Title != nil,
		"price", l.Price != nil,
		"images", len(l.Images))
	return l, nil
}

// loadPage fetches the listing document, preferring a live browser
// session and falling back to a static fetch when permitted. The
// returned done func must run on every exit path: for the browser
// path it dumps debug artifacts and tears the session down.
func (s *Scraper) loadPage(ctx context.Context, rawURL string, platform Platform) (*Page, string, func(), error) {
	noop := func() {}

	browserCfg := s.cfg.Browser
	if browserCfg.ExecPath == "" {
		browserCfg.ExecPath = browser.FindChromePath()
	}

	if browserCfg.ExecPath == "" && s.cfg.StaticFallback {
		logger.Warn("no browser available, using static fetch", "url", rawURL)
		content, err := s.static.Fetch(ctx, rawURL)
		if err != nil {
			return nil, "", noop, fmt.Errorf("%w: %v", browser.ErrNavigation, err)
		}
		page, err := NewPage(rawURL, content.HTML, nil)
		return page, "", noop, err
	}

	sess, err := browser.Launch(ctx, browserCfg)
	if err != nil {
		return nil, "", noop, err
	}

	done := func() {
		sess.DumpArtifacts(ctx, artifactName(rawURL))
		sess.Close()
	}

	if err := sess.Navigate(ctx, rawURL); err != nil {
		sess.Close()
		return nil, "", noop, err
	}

	sess.AwaitChallenge(ctx, ContentSelector(platform))

	html, err := sess.HTML(ctx)
	if err != nil {
		sess.Close()
		return nil, "", noop, fmt.Errorf("%w: %v", browser.ErrNavigation, err)
	}

	cookies, err := sess.CookieHeader(ctx)
	if err != nil {
		logger.Debug("cookie capture failed", "error", err)
	}

	page, err := NewPage(rawURL, html, sess.Ctx())
	if err != nil {
		sess.Close()
		return nil, "", noop, err
	}
	return page, cookies, done, nil
}

// extractAirbnb runs the hardened-target path: embedded-state mining,
// then price reconstruction and geocoding, with the regex fallback
// chain behind it.
func (s *Scraper) extractAirbnb(ctx context.Context, page *Page, cookies string, l *listing.Listing) error {
	rec, query, err := airbnb.Mine(page.HTML)
	if err != nil {
		logger.Warn("embedded-state mining failed, falling back", "error", err)
		if !ApplyFallbacks(ctx, page, l) {
			return fmt.Errorf("%w: no extractable title in Airbnb page", ErrExtraction)
		}
		return nil
	}

	applyRecord(l, rec)

	// DOM supplement for fields the payload omitted.
	runExtractor(ctx, ForPlatform(PlatformAirbnb), page, l)

	if l.Price == nil && s.pricer != nil {
		query.Cookies = cookies
		l.Price = s.pricer.NightlyRate(ctx, query, airbnb.StayDates{})
	}

	if (l.Location == nil || *l.Location == "") && rec.Latitude != nil && rec.Longitude != nil {
		l.Location = s.resolveLocation(ctx, *rec.Latitude, *rec.Longitude)
	}

	return nil
}

// resolveLocation geocodes coordinates, falling back to printing them
// raw when the service yields nothing.
func (s *Scraper) resolveLocation(ctx context.Context, lat, lon float64) *string {
	if s.geocoder != nil {
		if place := s.geocoder.Locate(ctx, lat, lon); place != nil {
			return place
		}
	}
	raw := fmt.Sprintf("%.5f, %.5f", lat, lon)
	return &raw
}

// runExtractor isolates a platform extractor: an unexpected panic is
// logged and the fields collected so far are kept.
func runExtractor(ctx context.Context, ex Extractor, page *Page, l *listing.Listing) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("platform extractor panicked", "url", l.URL, "panic", r)
		}
	}()
	ex.Extract(ctx, page, l)
}

func applyRecord(l *listing.Listing, rec *airbnb.Record) {
	l.Title = listing.Str(rec.Title)
	l.Description = listing.Str(rec.Description)
	l.Location = listing.Str(rec.Location)
	l.Sleeps = rec.Sleeps
	l.Bedrooms = rec.Bedrooms
	l.Bathrooms = rec.Bathrooms
	l.Rating = rec.Rating
	l.Price = rec.Price
	l.Amenities = rec.Amenities
	l.Images = rec.Images
}

func artifactName(rawURL string) string {
	name := make([]rune, 0, 40)
	for _, r := range rawURL {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			name = append(name, r)
		default:
			name = append(name, '-')
		}
		if len(name) == 40 {
			break
		}
	}
	return string(name)
}
