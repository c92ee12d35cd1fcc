package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is a loaded listing document. Extractors read the parsed DOM;
// BrowserCtx is non-nil only when a live chromedp session backs the
// page, enabling probes that need in-browser evaluation.
type Page struct {
	URL        *url.URL
	HTML       string
	Doc        *goquery.Document
	BrowserCtx context.Context
}

// NewPage parses rendered HTML into a Page.
func NewPage(rawURL, html string, browserCtx context.Context) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page HTML: %w", err)
	}
	return &Page{URL: u, HTML: html, Doc: doc, BrowserCtx: browserCtx}, nil
}

// Text returns the whole document's visible text with scripts and
// styles removed. Computed once per call; callers cache it.
func (p *Page) Text() string {
	clone := p.Doc.Clone()
	clone.Find("script, style, noscript").Remove()
	return clone.Text()
}

// Resolve makes href absolute against the page URL.
func (p *Page) Resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if ref.IsAbs() {
		return ref.String()
	}
	return p.URL.ResolveReference(ref).String()
}
