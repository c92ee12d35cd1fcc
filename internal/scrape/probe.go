package scrape

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/stayscout/stayscout/internal/normalize"
)

// fieldTimeout bounds one candidate lookup. A hung or absent selector
// costs at most this much; it can never stall the rest of the record.
const fieldTimeout = 2 * time.Second

// probeFn is one candidate strategy for a single field. ok is false
// when the strategy yielded nothing usable.
type probeFn[T any] func(ctx context.Context) (T, bool)

// firstOf tries candidates in order. Each candidate runs in its own
// goroutine raced against timeout; the first non-empty result wins.
// Candidate failures and timeouts are swallowed — a field that cannot
// be resolved is simply absent.
func firstOf[T any](ctx context.Context, timeout time.Duration, probes ...probeFn[T]) (T, bool) {
	var zero T
	for _, probe := range probes {
		if ctx.Err() != nil {
			return zero, false
		}

		probeCtx, cancel := context.WithTimeout(ctx, timeout)

		type outcome struct {
			val T
			ok  bool
		}
		ch := make(chan outcome, 1)
		go func(p probeFn[T]) {
			v, ok := p(probeCtx)
			ch <- outcome{v, ok}
		}(probe)

		select {
		case res := <-ch:
			cancel()
			if res.ok {
				return res.val, true
			}
		case <-probeCtx.Done():
			cancel()
		}
	}
	return zero, false
}

// stringField resolves a string field over its candidate probes.
func stringField(ctx context.Context, probes ...probeFn[string]) *string {
	if v, ok := firstOf(ctx, fieldTimeout, probes...); ok {
		return &v
	}
	return nil
}

// numberField resolves a numeric field over its candidate probes.
func numberField(ctx context.Context, probes ...probeFn[float64]) *float64 {
	if v, ok := firstOf(ctx, fieldTimeout, probes...); ok {
		return &v
	}
	return nil
}

// textOf probes the first non-empty text content under selector.
func textOf(p *Page, selector string) probeFn[string] {
	return func(context.Context) (string, bool) {
		text := strings.TrimSpace(p.Doc.Find(selector).First().Text())
		return text, text != ""
	}
}

// textMatching probes selector matches for the first whose text
// satisfies re, returning the capture group when present.
func textMatching(p *Page, selector string, re *regexp.Regexp) probeFn[string] {
	return func(context.Context) (string, bool) {
		var found string
		p.Doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			m := re.FindStringSubmatch(text)
			if m == nil {
				return true
			}
			if len(m) > 1 {
				found = m[1]
			} else {
				found = m[0]
			}
			return false
		})
		return found, found != ""
	}
}

// attrOf probes the first non-empty attribute value under selector.
func attrOf(p *Page, selector, attr string) probeFn[string] {
	return func(context.Context) (string, bool) {
		val, _ := p.Doc.Find(selector).First().Attr(attr)
		val = strings.TrimSpace(val)
		return val, val != ""
	}
}

// metaContent probes <meta> content by property or name.
func metaContent(p *Page, key string) probeFn[string] {
	return func(context.Context) (string, bool) {
		sel := `meta[property="` + key + `"], meta[name="` + key + `"]`
		val, _ := p.Doc.Find(sel).First().Attr("content")
		val = strings.TrimSpace(val)
		return val, val != ""
	}
}

// amountOf probes selector text for a currency amount. Tolerates
// symbols, separators and trailing qualifiers like "/night".
func amountOf(p *Page, selector string) probeFn[float64] {
	return func(context.Context) (float64, bool) {
		text := strings.TrimSpace(p.Doc.Find(selector).First().Text())
		if v := normalize.Amount(text); v != nil {
			return *v, true
		}
		return 0, false
	}
}

// numberOf probes selector text for the first decimal number.
func numberOf(p *Page, selector string) probeFn[float64] {
	return func(context.Context) (float64, bool) {
		text := p.Doc.Find(selector).First().Text()
		return normalize.Number(text)
	}
}

// numberFrom converts a string probe into a numeric one.
func numberFrom(probe probeFn[string]) probeFn[float64] {
	return func(ctx context.Context) (float64, bool) {
		s, ok := probe(ctx)
		if !ok {
			return 0, false
		}
		return normalize.Number(s)
	}
}
