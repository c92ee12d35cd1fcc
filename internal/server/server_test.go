package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stayscout/stayscout/internal/jobs"
	"github.com/stayscout/stayscout/internal/store"
	"github.com/stayscout/stayscout/pkg/listing"
)

type stubExtractor struct {
	result *listing.Listing
	err    error
}

func (s *stubExtractor) ExtractListing(_ context.Context, url string) (*listing.Listing, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := *s.result
	out.URL = url
	return &out, nil
}

type stubStore struct {
	saved    []*listing.Listing
	listings []store.StoredListing
}

func (s *stubStore) SaveListing(_ context.Context, l *listing.Listing) (int64, error) {
	s.saved = append(s.saved, l)
	return int64(len(s.saved)), nil
}

func (s *stubStore) ListListings(_ context.Context, _ int) ([]store.StoredListing, error) {
	return s.listings, nil
}

type stubSender struct {
	sent []*listing.Listing
}

func (s *stubSender) Send(_ context.Context, l *listing.Listing) error {
	s.sent = append(s.sent, l)
	return nil
}

func waitForTerminal(t *testing.T, tr *jobs.Tracker, id string) jobs.Job {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		job, err := tr.Get(id)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if job.Status == jobs.StatusSucceeded || job.Status == jobs.StatusFailed {
			return job
		}
		select {
		case <-deadline:
			t.Fatalf("job stuck in %q", job.Status)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestHandleScrape_AsyncJobFlow(t *testing.T) {
	tr := jobs.NewTracker()
	st := &stubStore{}
	fwd := &stubSender{}
	extractor := &stubExtractor{result: &listing.Listing{
		Source:    "VRBO",
		Title:     listing.Str("Creekside Cottage"),
		ScrapedAt: time.Now().UTC(),
	}}
	srv := New(extractor, tr, st, fwd)

	body := bytes.NewBufferString(`{"url": "https://www.vrbo.com/1234"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/scrape", body)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := resp["jobId"]
	if id == "" {
		t.Fatal("response missing jobId")
	}

	job := waitForTerminal(t, tr, id)
	if job.Status != jobs.StatusSucceeded {
		t.Fatalf("job = %+v", job)
	}
	if job.Result == nil || job.Result.URL != "https://www.vrbo.com/1234" {
		t.Errorf("result = %+v", job.Result)
	}
	if len(st.saved) != 1 {
		t.Errorf("saved = %d listings, want 1", len(st.saved))
	}
	if len(fwd.sent) != 1 {
		t.Errorf("forwarded = %d listings, want 1", len(fwd.sent))
	}
}

func TestHandleScrape_FailureRecordedOnJob(t *testing.T) {
	tr := jobs.NewTracker()
	srv := New(&stubExtractor{err: errors.New("browser launch failed")}, tr, nil, nil)

	body := bytes.NewBufferString(`{"url": "https://example.com/x"}`)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scrape", body))

	var resp map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	job := waitForTerminal(t, tr, resp["jobId"])
	if job.Status != jobs.StatusFailed || job.Error != "browser launch failed" {
		t.Errorf("job = %+v", job)
	}
}

func TestHandleScrape_RejectsBadBody(t *testing.T) {
	srv := New(&stubExtractor{}, jobs.NewTracker(), nil, nil)
	for _, body := range []string{"", "{}", "not json"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/scrape", bytes.NewBufferString(body))
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestHandleJob_Unknown(t *testing.T) {
	srv := New(&stubExtractor{}, jobs.NewTracker(), nil, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleListings_WithoutStore(t *testing.T) {
	srv := New(&stubExtractor{}, jobs.NewTracker(), nil, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandleListings_ReturnsStored(t *testing.T) {
	st := &stubStore{listings: []store.StoredListing{{
		ID:    1,
		Votes: 2,
		Listing: listing.Listing{
			URL:    "https://www.vrbo.com/1234",
			Source: "VRBO",
		},
	}}}
	srv := New(&stubExtractor{}, jobs.NewTracker(), st, nil)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/listings?limit=5", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Listings []store.StoredListing `json:"listings"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Listings) != 1 || resp.Listings[0].URL != "https://www.vrbo.com/1234" {
		t.Errorf("listings = %+v", resp.Listings)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := New(&stubExtractor{}, jobs.NewTracker(), nil, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	var resp map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if resp["status"] != "ok" {
		t.Errorf("status field = %q", resp["status"])
	}
}
