package airbnb

// Helpers for navigating the untyped JSON payload Airbnb embeds for
// client hydration. The schema drifts between listing types, so
// everything here is tolerant: wrong shapes read as absent.

import "github.com/stayscout/stayscout/internal/normalize"

// dig walks nested maps by key path, returning nil on any miss.
func dig(v any, keys ...string) any {
	for _, key := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[key]
	}
	return v
}

func digMap(v any, keys ...string) map[string]any {
	m, _ := dig(v, keys...).(map[string]any)
	return m
}

func digSlice(v any, keys ...string) []any {
	s, _ := dig(v, keys...).([]any)
	return s
}

func digString(v any, keys ...string) string {
	s, _ := dig(v, keys...).(string)
	return s
}

// digFloat reads a number whether the payload encodes it as a JSON
// number or a numeric string.
func digFloat(v any, keys ...string) (float64, bool) {
	switch n := dig(v, keys...).(type) {
	case float64:
		return n, true
	case string:
		return normalize.Number(n)
	}
	return 0, false
}

// maxSearchDepth bounds the recursive payload search; real listing
// nodes live well within this, and it guards against pathological
// nesting.
const maxSearchDepth = 16

// deepFind returns the first map at or below v matching pred,
// depth-first with an explicit depth bound.
func deepFind(v any, depth int, pred func(map[string]any) bool) map[string]any {
	if depth < 0 {
		return nil
	}
	switch node := v.(type) {
	case map[string]any:
		if pred(node) {
			return node
		}
		for _, child := range node {
			if found := deepFind(child, depth-1, pred); found != nil {
				return found
			}
		}
	case []any:
		for _, child := range node {
			if found := deepFind(child, depth-1, pred); found != nil {
				return found
			}
		}
	}
	return nil
}
