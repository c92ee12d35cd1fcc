// Package server exposes the extraction engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/stayscout/stayscout/internal/jobs"
	"github.com/stayscout/stayscout/internal/logger"
	"github.com/stayscout/stayscout/internal/store"
	"github.com/stayscout/stayscout/internal/version"
	"github.com/stayscout/stayscout/pkg/listing"
)

// jobTimeout bounds one background extraction end to end.
const jobTimeout = 3 * time.Minute

// Extractor runs one scrape. Satisfied by scrape.Scraper.
type Extractor interface {
	ExtractListing(ctx context.Context, url string) (*listing.Listing, error)
}

// ListingStore is the persistence surface the API needs. Nil disables
// the listings endpoints.
type ListingStore interface {
	SaveListing(ctx context.Context, l *listing.Listing) (int64, error)
	ListListings(ctx context.Context, limit int) ([]store.StoredListing, error)
}

// Sender forwards successful extractions downstream. Nil disables
// forwarding.
type Sender interface {
	Send(ctx context.Context, l *listing.Listing) error
}

// Server wires the scraper, job tracker and collaborators behind an
// httprouter mux.
type Server struct {
	extractor Extractor
	tracker   *jobs.Tracker
	store     ListingStore
	forwarder Sender
}

func New(extractor Extractor, tracker *jobs.Tracker, st ListingStore, fwd Sender) *Server {
	return &Server{
		extractor: extractor,
		tracker:   tracker,
		store:     st,
		forwarder: fwd,
	}
}

// Router builds the route table.
func (s *Server) Router() *httprouter.Router {
	router := httprouter.New()
	router.POST("/api/scrape", s.handleScrape)
	router.GET("/api/jobs/:id", s.handleJob)
	router.GET("/api/listings", s.handleListings)
	router.GET("/healthz", s.handleHealth)
	return router
}

// ListenAndServe blocks serving the API until the listener fails.
func (s *Server) ListenAndServe(addr string) error {
	logger.Info("http api listening", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

type scrapeRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"url\": \"...\"}")
		return
	}

	id := s.tracker.Create(req.URL)
	go s.runJob(id, req.URL)

	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": id})
}

// runJob drives one extraction in the background and records the
// outcome on the tracker. Persistence and forwarding are best-effort;
// their failures are logged, not surfaced on the job.
func (s *Server) runJob(id, url string) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	_ = s.tracker.Start(id)

	result, err := s.extractor.ExtractListing(ctx, url)
	if err != nil {
		logger.Warn("scrape job failed", "job", id, "url", url, "error", err)
		_ = s.tracker.Fail(id, err)
		return
	}
	if s.store != nil {
		if _, err := s.store.SaveListing(ctx, result); err != nil {
			logger.Warn("persist failed", "job", id, "error", err)
		}
	}
	if s.forwarder != nil {
		if err := s.forwarder.Send(ctx, result); err != nil {
			logger.Warn("forward failed", "job", id, "error", err)
		}
	}

	_ = s.tracker.Succeed(id, result)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	job, err := s.tracker.Get(params.ByName("id"))
	if errors.Is(err, jobs.ErrUnknownJob) {
		writeError(w, http.StatusNotFound, "unknown job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	got, err := s.store.ListListings(r.Context(), limit)
	if err != nil {
		logger.Error("list listings failed", "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if got == nil {
		got = []store.StoredListing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"listings": got})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
