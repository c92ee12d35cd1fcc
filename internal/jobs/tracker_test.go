package jobs

import (
	"errors"
	"sync"
	"testing"

	"github.com/stayscout/stayscout/pkg/listing"
)

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker()
	id := tr.Create("https://www.vrbo.com/1234")

	job, err := tr.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if job.Status != StatusPending {
		t.Errorf("status = %q, want pending", job.Status)
	}
	if job.URL != "https://www.vrbo.com/1234" {
		t.Errorf("url = %q", job.URL)
	}

	if err := tr.Start(id); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	job, _ = tr.Get(id)
	if job.Status != StatusRunning {
		t.Errorf("status = %q, want running", job.Status)
	}

	result := &listing.Listing{URL: job.URL, Source: "VRBO"}
	if err := tr.Succeed(id, result); err != nil {
		t.Fatalf("Succeed() error = %v", err)
	}
	job, _ = tr.Get(id)
	if job.Status != StatusSucceeded || job.Result == nil {
		t.Errorf("job = %+v, want succeeded with result", job)
	}
}

func TestTracker_FailRecordsReason(t *testing.T) {
	tr := NewTracker()
	id := tr.Create("https://example.com/x")

	if err := tr.Fail(id, errors.New("navigation timed out")); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	job, _ := tr.Get(id)
	if job.Status != StatusFailed || job.Error != "navigation timed out" {
		t.Errorf("job = %+v", job)
	}
}

func TestTracker_UnknownJob(t *testing.T) {
	tr := NewTracker()
	if _, err := tr.Get("nope"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Get err = %v", err)
	}
	if err := tr.Start("nope"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Start err = %v", err)
	}
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := tr.Create("https://example.com/y")
			_ = tr.Start(id)
			_ = tr.Succeed(id, nil)
			if _, err := tr.Get(id); err != nil {
				t.Errorf("Get() error = %v", err)
			}
		}()
	}
	wg.Wait()
}
