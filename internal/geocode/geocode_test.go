package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"
)

func testResolver(baseURL string) *Resolver {
	r := NewResolver(rate.NewLimiter(rate.Inf, 1), "test-agent/1.0")
	r.BaseURL = baseURL
	return r
}

func TestLocate_CityAndState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"address":{"city":"Asheville","state":"North Carolina"}}`)
	}))
	defer srv.Close()

	got := testResolver(srv.URL).Locate(context.Background(), 35.595, -82.551)
	if got == nil || *got != "Asheville, North Carolina" {
		t.Errorf("Locate = %v, want Asheville, North Carolina", got)
	}
}

func TestLocate_CountyFallbackAndSecondTier(t *testing.T) {
	// First call knows only the county; the coarser second call
	// supplies the state.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("zoom") {
		case "18":
			fmt.Fprint(w, `{"address":{"county":"Buncombe County"}}`)
		case "5":
			fmt.Fprint(w, `{"address":{"state":"North Carolina"}}`)
		default:
			t.Errorf("unexpected zoom %q", r.URL.Query().Get("zoom"))
		}
	}))
	defer srv.Close()

	got := testResolver(srv.URL).Locate(context.Background(), 35.6, -82.5)
	if got == nil || *got != "Buncombe, North Carolina" {
		t.Errorf("Locate = %v, want Buncombe, North Carolina", got)
	}
}

func TestLocate_CityLadderPreference(t *testing.T) {
	cases := []struct {
		payload string
		want    string
	}{
		{`{"address":{"town":"Black Mountain","suburb":"Ignored","state":"North Carolina"}}`, "Black Mountain, North Carolina"},
		{`{"address":{"village":"Saluda","region":"Western Carolina"}}`, "Saluda, Western Carolina"},
		{`{"address":{"neighbourhood":"Montford","province":"Ontario"}}`, "Montford, Ontario"},
	}
	for _, tc := range cases {
		payload := tc.payload
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, payload)
		}))
		got := testResolver(srv.URL).Locate(context.Background(), 1, 2)
		srv.Close()
		if got == nil || *got != tc.want {
			t.Errorf("payload %s: Locate = %v, want %q", tc.payload, got, tc.want)
		}
	}
}

func TestLocate_StateOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"address":{"state":"Wyoming"}}`)
	}))
	defer srv.Close()

	got := testResolver(srv.URL).Locate(context.Background(), 43, -107)
	if got == nil || *got != "Wyoming" {
		t.Errorf("Locate = %v, want Wyoming", got)
	}
}

func TestLocate_NilWhenRefused(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusTooManyRequests} {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(status)
		}))
		got := testResolver(srv.URL).Locate(context.Background(), 1, 2)
		srv.Close()
		if got != nil {
			t.Errorf("status %d: Locate = %v, want nil", status, got)
		}
		if calls != 1 {
			t.Errorf("status %d: calls = %d, refusal must not retry", status, calls)
		}
	}
}

func TestLocate_NilWhenEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"address":{}}`)
	}))
	defer srv.Close()

	if got := testResolver(srv.URL).Locate(context.Background(), 0, 0); got != nil {
		t.Errorf("Locate = %v, want nil", got)
	}
}

func TestReverse_SendsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"address":{"city":"Nowhere"}}`)
	}))
	defer srv.Close()

	testResolver(srv.URL).Locate(context.Background(), 1, 2)
	if gotUA != "test-agent/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestCityOf_CountyStripsSuffix(t *testing.T) {
	if got := cityOf(address{County: "Buncombe County"}); got != "Buncombe" {
		t.Errorf("cityOf = %q", got)
	}
	if got := cityOf(address{County: "Greater Manchester"}); got != "Greater Manchester" {
		t.Errorf("cityOf = %q", got)
	}
}
