// Package jobs tracks asynchronous scrape jobs in memory.
package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stayscout/stayscout/pkg/listing"
)

// ErrUnknownJob is returned for ids the tracker has never issued.
var ErrUnknownJob = errors.New("unknown job")

// Status is the lifecycle state of a scrape job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is a point-in-time snapshot of one scrape request.
type Job struct {
	ID        string           `json:"id"`
	URL       string           `json:"url"`
	Status    Status           `json:"status"`
	Error     string           `json:"error,omitempty"`
	Result    *listing.Listing `json:"result,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Tracker is a concurrency-safe in-memory job registry. Jobs are kept
// until the process exits; restarts forget all history.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*Job)}
}

// Create registers a pending job for the URL and returns its id.
func (t *Tracker) Create(url string) string {
	id := uuid.NewString()
	now := time.Now().UTC()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.jobs[id] = &Job{
		ID:        id,
		URL:       url,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id
}

// Start marks the job running.
func (t *Tracker) Start(id string) error {
	return t.update(id, func(j *Job) {
		j.Status = StatusRunning
	})
}

// Succeed records the extracted listing and marks the job done.
func (t *Tracker) Succeed(id string, result *listing.Listing) error {
	return t.update(id, func(j *Job) {
		j.Status = StatusSucceeded
		j.Result = result
		j.Error = ""
	})
}

// Fail records the failure reason.
func (t *Tracker) Fail(id string, cause error) error {
	return t.update(id, func(j *Job) {
		j.Status = StatusFailed
		if cause != nil {
			j.Error = cause.Error()
		}
	})
}

// Get returns a snapshot copy of the job.
func (t *Tracker) Get(id string) (Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	j, ok := t.jobs[id]
	if !ok {
		return Job{}, ErrUnknownJob
	}
	return *j, nil
}

func (t *Tracker) update(id string, apply func(*Job)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[id]
	if !ok {
		return ErrUnknownJob
	}
	apply(j)
	j.UpdatedAt = time.Now().UTC()
	return nil
}
