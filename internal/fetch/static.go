// Package fetch provides a plain-HTTP fallback fetcher for
// deployments without a Chrome binary. Sites that gate content behind
// JavaScript degrade here, but server-rendered pages — including the
// embedded-state payload — still come through.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/stayscout/stayscout/internal/logger"
)

// Content is a fetched page.
type Content struct {
	URL        string
	HTML       string
	StatusCode int
	FetchedAt  time.Time
}

// Static fetches pages over plain HTTP using Colly.
type Static struct {
	UserAgent string
	Timeout   time.Duration
}

// defaultUserAgent matches a current stable desktop Chrome; listing
// sites reject obviously synthetic agents outright.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewStatic creates a static fetcher.
func NewStatic(userAgent string, timeout time.Duration) *Static {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Static{UserAgent: userAgent, Timeout: timeout}
}

// Fetch retrieves a page. A fresh collector serves each request; no
// state is shared across fetches.
func (f *Static) Fetch(ctx context.Context, targetURL string) (Content, error) {
	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	c := colly.NewCollector(
		colly.UserAgent(f.UserAgent),
	)
	c.SetRequestTimeout(f.Timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.HTML = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = err
	})

	if err := c.Visit(targetURL); err != nil {
		return result, fmt.Errorf("static fetch: %w", err)
	}
	c.Wait()

	if fetchErr != nil {
		return result, fmt.Errorf("static fetch: %w", fetchErr)
	}

	logger.Debug("static fetch complete",
		"url", targetURL,
		"status", result.StatusCode,
		"html_size", len(result.HTML))
	return result, nil
}
