// Package geocode resolves coordinates to a human place name through
// a Nominatim-compatible reverse-geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/stayscout/stayscout/internal/logger"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// MinInterval is the politeness floor between calls to the service.
const MinInterval = time.Second

// Zoom levels for the two lookup tiers.
const (
	zoomBuilding = 18 // building/neighborhood precision
	zoomRegion   = 5  // state-level precision
)

// NewPacer returns the shared rate gate for the service. One pacer
// must serialize all geocoding calls in the process, across scrape
// jobs.
func NewPacer() *rate.Limiter {
	return rate.NewLimiter(rate.Every(MinInterval), 1)
}

// Resolver performs two-tier reverse lookups. The injected pacer is
// awaited before every outbound call.
type Resolver struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client

	pacer *rate.Limiter
}

// NewResolver creates a resolver sharing the given pacer.
func NewResolver(pacer *rate.Limiter, userAgent string) *Resolver {
	return &Resolver{
		BaseURL:    defaultBaseURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		pacer:      pacer,
	}
}

// address is the service's address object; only the fields the
// preference ladders read.
type address struct {
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Municipality  string `json:"municipality"`
	CityDistrict  string `json:"city_district"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	County        string `json:"county"`
	State         string `json:"state"`
	Region        string `json:"region"`
	StateDistrict string `json:"state_district"`
	Province      string `json:"province"`
}

// cityOf walks the city preference ladder, stripping a trailing
// "County" from the county fallback.
func cityOf(a address) string {
	for _, candidate := range []string{
		a.City, a.Town, a.Village, a.Municipality,
		a.CityDistrict, a.Suburb, a.Neighbourhood,
	} {
		if candidate != "" {
			return candidate
		}
	}
	if a.County != "" {
		return strings.TrimSpace(strings.TrimSuffix(a.County, "County"))
	}
	return ""
}

// stateOf walks the state preference ladder.
func stateOf(a address) string {
	for _, candidate := range []string{a.State, a.Region, a.StateDistrict, a.Province} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// Locate turns coordinates into "City, State", or whichever half the
// service knows. A second, coarser lookup fills a missing state.
// Returns nil when the service yields nothing or is rate-limited; the
// caller falls back to printing raw coordinates.
func (r *Resolver) Locate(ctx context.Context, lat, lon float64) *string {
	first, err := r.reverse(ctx, lat, lon, zoomBuilding)
	if err != nil {
		logger.Debug("reverse geocode failed", "error", err)
		return nil
	}

	city := cityOf(*first)
	state := stateOf(*first)

	if city != "" && state == "" {
		// One more call at state-level zoom; the pacer enforces the
		// politeness interval before it goes out.
		if second, err := r.reverse(ctx, lat, lon, zoomRegion); err == nil {
			state = stateOf(*second)
		}
	}

	switch {
	case city != "" && state != "":
		s := city + ", " + state
		return &s
	case city != "":
		return &city
	case state != "":
		return &state
	}
	return nil
}

// reverse performs one lookup at the given zoom. HTTP 403/429 mean
// the service is refusing us; no retry.
func (r *Resolver) reverse(ctx context.Context, lat, lon float64, zoom int) (*address, error) {
	if err := r.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&zoom=%d&format=jsonv2&accept-language=en",
		r.BaseURL, lat, lon, zoom)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.UserAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("geocoding service refused request: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding service error: %d", resp.StatusCode)
	}

	var payload struct {
		Address address `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload.Address, nil
}
