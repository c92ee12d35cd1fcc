package scrape

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/stayscout/stayscout/internal/logger"
)

// maxImages caps the collected gallery per listing.
const maxImages = 10

// minImageWidth excludes decorative thumbnails on the generic path.
const minImageWidth = 300

// decorative assets that are never listing photos.
var skipImageRe = regexp.MustCompile(`(?i)(logo|icon|avatar|sprite|button|badge|placeholder|tracking|pixel)`)

// collectImages gathers <img> sources under the given selectors,
// resolves them against the page URL, filters decorative assets and
// deduplicates by resolved URL, capped at maxImages.
func collectImages(p *Page, selectors ...string) []string {
	if len(selectors) == 0 {
		selectors = []string{"img"}
	}

	var candidates []string
	for _, selector := range selectors {
		p.Doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			src, ok := s.Attr("src")
			if !ok || src == "" {
				src, _ = s.Attr("data-src")
			}
			if src != "" {
				candidates = append(candidates, src)
			}
		})
		if len(candidates) > 0 {
			break
		}
	}

	return filterImages(p, candidates)
}

// filterImages applies the resolve/filter/dedupe/cap pipeline to raw
// image URL candidates.
func filterImages(p *Page, candidates []string) []string {
	seen := make(map[string]bool, len(candidates))
	var images []string
	for _, raw := range candidates {
		if strings.HasPrefix(raw, "data:") {
			continue
		}
		resolved := p.Resolve(raw)
		if resolved == "" || seen[resolved] {
			continue
		}
		if skipImageRe.MatchString(resolved) {
			continue
		}
		seen[resolved] = true
		images = append(images, resolved)
		if len(images) == maxImages {
			break
		}
	}
	return images
}

// wideImages re-validates candidate URLs against the live DOM,
// keeping only images whose natural width suggests a real photo.
// Requires an attached browser; without one the input passes through.
func wideImages(ctx context.Context, p *Page, urls []string) []string {
	if p.BrowserCtx == nil || len(urls) == 0 {
		return urls
	}

	allowed, ok := naturalWidths(p.BrowserCtx)
	if !ok {
		return urls
	}

	var kept []string
	for _, u := range urls {
		if width, found := allowed[u]; !found || width >= minImageWidth {
			kept = append(kept, u)
		}
	}
	return kept
}

// naturalWidths asks the live page for every image's naturalWidth,
// keyed by its resolved src.
func naturalWidths(browserCtx context.Context) (map[string]float64, bool) {
	evalCtx, cancel := context.WithTimeout(browserCtx, 3*time.Second)
	defer cancel()

	const script = `JSON.stringify(Array.from(document.images).map(i => [i.currentSrc || i.src, i.naturalWidth]))`

	var raw string
	if err := chromedp.Run(evalCtx, chromedp.Evaluate(script, &raw)); err != nil {
		logger.Debug("image width probe failed", "error", err)
		return nil, false
	}

	var pairs [][2]any
	if err := json.Unmarshal([]byte(raw), &pairs); err != nil {
		return nil, false
	}

	widths := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		src, _ := pair[0].(string)
		width, _ := pair[1].(float64)
		if src != "" {
			widths[src] = width
		}
	}
	return widths, true
}
