// Package airbnb mines the listing payload Airbnb embeds server-side
// for client hydration, bypassing DOM-selector fragility entirely,
// and replays the internal pricing query when the payload omits a
// nightly rate.
package airbnb

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stayscout/stayscout/internal/logger"
)

var (
	// ErrNoEmbeddedState means the page carried no deferred-state
	// node. This page shape is required; there is no DOM fallback at
	// this stage.
	ErrNoEmbeddedState = errors.New("embedded state node not found")

	// ErrNoListingData means the state parsed but held no stay detail
	// payload at the known path or anywhere reachable.
	ErrNoListingData = errors.New("listing detail missing from embedded state")
)

// QueryContext carries the side-channel values needed to replay the
// internal pricing query: consumed once, then discarded. Cookies are
// attached by the caller from the live session.
type QueryContext struct {
	APIKey       string
	ProductID    string
	ImpressionID string
	Cookies      string
}

// Complete reports whether the pricing query can be attempted.
func (q QueryContext) Complete() bool {
	return q.APIKey != "" && q.ProductID != "" && q.ImpressionID != ""
}

var (
	apiConfigKeyRe = regexp.MustCompile(`"api_config"\s*:\s*\{[^{}]*?"key"\s*:\s*"([^"]+)"`)
	looseKeyRe     = regexp.MustCompile(`"(?:key|apiKey)"\s*:\s*"(d1[0-9a-z]{16,})"`)
)

// Mine locates the server-embedded listing payload in rendered HTML
// and standardizes it. The API key and the product/impression pair
// are extracted as side values for the pricing subsystem.
func Mine(html string) (*Record, QueryContext, error) {
	var query QueryContext

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, query, fmt.Errorf("parse listing HTML: %w", err)
	}

	node := doc.Find(`script[id^="data-deferred-state"]`).First()
	if node.Length() == 0 {
		node = doc.Find(`script#data-state`).First()
	}
	if node.Length() == 0 {
		return nil, query, ErrNoEmbeddedState
	}

	var root any
	if err := json.Unmarshal([]byte(node.Text()), &root); err != nil {
		return nil, query, fmt.Errorf("embedded state is not valid JSON: %w", err)
	}

	detail := findStayDetail(root)
	if detail == nil {
		return nil, query, ErrNoListingData
	}

	query.APIKey = findAPIKey(html, doc)
	query.ProductID, query.ImpressionID = findRequestVariables(root)
	if !query.Complete() {
		logger.Debug("pricing query context incomplete",
			"api_key", query.APIKey != "",
			"product_id", query.ProductID != "",
			"impression_id", query.ImpressionID != "")
	}

	return standardize(detail), query, nil
}

// findStayDetail navigates the client-data array to the stay detail
// object. The fixed path is tried first; because Airbnb moves the
// node between listing types, a depth-bounded shape search backs it
// up.
func findStayDetail(root any) map[string]any {
	for _, entry := range digSlice(root, "niobeMinimalClientData") {
		// Entries are [queryKey, response] pairs.
		pair, ok := entry.([]any)
		if !ok || len(pair) < 2 {
			continue
		}
		if detail := digMap(pair[1], "data", "presentation", "stayProductDetailPage"); detail != nil {
			return detail
		}
	}

	found := deepFind(root, maxSearchDepth, func(m map[string]any) bool {
		detail, ok := m["stayProductDetailPage"].(map[string]any)
		return ok && dig(detail, "sections") != nil
	})
	if found == nil {
		return nil
	}
	detail, _ := found["stayProductDetailPage"].(map[string]any)
	return detail
}

// findAPIKey pulls the public API key from the page markup: the
// api_config blob first, then any inline script carrying a key-shaped
// literal.
func findAPIKey(html string, doc *goquery.Document) string {
	if m := apiConfigKeyRe.FindStringSubmatch(html); m != nil {
		return m[1]
	}

	var key string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := looseKeyRe.FindStringSubmatch(s.Text()); m != nil {
			key = m[1]
			return false
		}
		return true
	})
	return key
}

// findRequestVariables locates the {productId, impressionId} pair in
// the request-variables section of the client data.
func findRequestVariables(root any) (productID, impressionID string) {
	vars := deepFind(root, maxSearchDepth, func(m map[string]any) bool {
		_, hasProduct := m["productId"].(string)
		return hasProduct
	})
	if vars == nil {
		return "", ""
	}
	productID, _ = vars["productId"].(string)
	if id, ok := vars["impressionId"].(string); ok {
		impressionID = id
	} else if id, ok := vars["p3ImpressionId"].(string); ok {
		impressionID = id
	}
	return productID, impressionID
}
