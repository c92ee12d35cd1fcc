package airbnb

import "testing"

func TestDig_PathMisses(t *testing.T) {
	payload := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": "deep"}},
	}
	if got := digString(payload, "a", "b", "c"); got != "deep" {
		t.Errorf("digString = %q", got)
	}
	if got := dig(payload, "a", "missing", "c"); got != nil {
		t.Errorf("dig through missing key = %v, want nil", got)
	}
	if got := dig("not a map", "a"); got != nil {
		t.Errorf("dig on scalar = %v, want nil", got)
	}
}

func TestDigFloat_StringNumbers(t *testing.T) {
	payload := map[string]any{
		"asNumber": float64(3),
		"asString": "4.5",
		"junk":     "no digits here",
	}
	if v, ok := digFloat(payload, "asNumber"); !ok || v != 3 {
		t.Errorf("asNumber = %v, %v", v, ok)
	}
	if v, ok := digFloat(payload, "asString"); !ok || v != 4.5 {
		t.Errorf("asString = %v, %v", v, ok)
	}
	if _, ok := digFloat(payload, "junk"); ok {
		t.Error("junk string should not parse")
	}
}

func TestDeepFind_DepthBound(t *testing.T) {
	// Build nesting deeper than the search bound with the target at
	// the bottom.
	leaf := map[string]any{"marker": true}
	var v any = leaf
	for i := 0; i < maxSearchDepth+4; i++ {
		v = map[string]any{"wrap": v}
	}

	pred := func(m map[string]any) bool {
		_, ok := m["marker"]
		return ok
	}
	if found := deepFind(v, maxSearchDepth, pred); found != nil {
		t.Error("target beyond the depth bound should not be found")
	}
	if found := deepFind(leaf, maxSearchDepth, pred); found == nil {
		t.Error("target at the root should be found")
	}
}

func TestDeepFind_TraversesSlices(t *testing.T) {
	payload := []any{
		map[string]any{"other": 1},
		[]any{map[string]any{"wanted": "yes"}},
	}
	found := deepFind(payload, maxSearchDepth, func(m map[string]any) bool {
		_, ok := m["wanted"]
		return ok
	})
	if found == nil || found["wanted"] != "yes" {
		t.Errorf("deepFind = %v", found)
	}
}
