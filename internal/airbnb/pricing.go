package airbnb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/stayscout/stayscout/internal/logger"
)

// staysSectionsHash is the persisted-query hash for the sections
// query the listing page itself issues.
const staysSectionsHash = "4b5a2d2678dd9dbd1d8d22cbfb4b2b112d65e2fca2f2e7e31ec5f17fcff75a2d"

const defaultPriceBaseURL = "https://www.airbnb.com"

// StayDates optionally scopes the pricing query to a stay window.
// Both nil requests an undated nightly rate.
type StayDates struct {
	CheckIn  *string
	CheckOut *string
}

// PriceClient replays the platform's internal sections query to
// recover an authoritative nightly rate when the page payload omits
// one.
type PriceClient struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// NewPriceClient returns a client with production defaults.
func NewPriceClient(userAgent string) *PriceClient {
	return &PriceClient{
		BaseURL:    defaultPriceBaseURL,
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// NightlyRate fetches the booking-sidebar price for the given query
// context. Skipped (nil) unless the context is complete; any network
// or parsing failure is non-fatal and also yields nil — price simply
// stays unknown.
func (c *PriceClient) NightlyRate(ctx context.Context, q QueryContext, dates StayDates) *float64 {
	if !q.Complete() {
		logger.Debug("price reconstruction skipped, query context incomplete")
		return nil
	}

	reqURL, err := c.buildURL(q, dates)
	if err != nil {
		logger.Debug("price reconstruction url", "error", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("X-Airbnb-API-Key", q.APIKey)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "application/json")
	if q.Cookies != "" {
		req.Header.Set("Cookie", q.Cookies)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Debug("price reconstruction request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Debug("price reconstruction rejected", "status", resp.StatusCode)
		return nil
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		logger.Debug("price reconstruction decode failed", "error", err)
		return nil
	}

	return sidebarPriceFromResponse(payload)
}

func (c *PriceClient) buildURL(q QueryContext, dates StayDates) (string, error) {
	variables := map[string]any{
		"id": q.ProductID,
		"pdpSectionsRequest": map[string]any{
			"adults":         "2",
			"children":       "0",
			"infants":        "0",
			"pets":           0,
			"layouts":        []string{"SIDEBAR"},
			"sectionIds":     []string{"BOOK_IT_SIDEBAR"},
			"checkIn":        dates.CheckIn,
			"checkOut":       dates.CheckOut,
			"p3ImpressionId": q.ImpressionID,
		},
	}
	extensions := map[string]any{
		"persistedQuery": map[string]any{
			"version":    1,
			"sha256Hash": staysSectionsHash,
		},
	}

	varsJSON, err := json.Marshal(variables)
	if err != nil {
		return "", err
	}
	extJSON, err := json.Marshal(extensions)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("operationName", "StaysPdpSections")
	params.Set("locale", "en-US")
	params.Set("currency", "USD")
	params.Set("variables", string(varsJSON))
	params.Set("extensions", string(extJSON))

	return fmt.Sprintf("%s/api/v3/StaysPdpSections?%s", c.BaseURL, params.Encode()), nil
}

// sidebarPriceFromResponse descends into the sections list, finds the
// booking sidebar and reads its primary price line.
func sidebarPriceFromResponse(payload any) *float64 {
	sections := digSlice(payload, "data", "presentation", "stayProductDetailPage", "sections", "sections")
	for _, entry := range sections {
		if digString(entry, "sectionId") != "BOOK_IT_SIDEBAR" {
			continue
		}
		if price := sidebarPrice(digMap(entry, "section")); price != nil {
			return price
		}
	}
	return nil
}
