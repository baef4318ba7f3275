package core

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the outcome reported for an import run.
type JobStatus string

const (
	JobStarted   JobStatus = "started"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Run is the state threaded through every phase of one import.
type Run struct {
	ID        string
	Reference string
	Started   time.Time
	Logger    *slog.Logger

	mu      sync.Mutex
	status  JobStatus
	stats   RunStats
	created []ResourceRef
}

// RunStats counts what a run did.
type RunStats struct {
	Records  int `json:"records"`
	Created  int `json:"created"`
	Failed   int `json:"failed"`
	Linked   int `json:"linked"`
	Warnings int `json:"warnings"`
}

// NewRun starts a run. The logger gets the run id and reference attached.
func NewRun(logger *slog.Logger) *Run {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	ref := "bulk/import/ead/" + id
	return &Run{
		ID:        id,
		Reference: ref,
		Started:   time.Now(),
		Logger:    logger.With("run_id", id, "reference", ref),
		status:    JobStarted,
	}
}

// Warn logs a recoverable problem and counts it.
func (r *Run) Warn(msg string, args ...any) {
	r.mu.Lock()
	r.stats.Warnings++
	r.mu.Unlock()
	r.Logger.Warn(msg, args...)
}

// Created records a created resource.
func (r *Run) Created(ref ResourceRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, ref)
	r.stats.Created++
}

// Count updates counters under the run lock.
func (r *Run) Count(fn func(*RunStats)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.stats)
}

// SetStatus sets the job outcome.
func (r *Run) SetStatus(s JobStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
}

// Status returns the job outcome.
func (r *Run) Status() JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Stats returns a copy of the counters.
func (r *Run) Stats() RunStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// CreatedRefs returns the created resources in creation order.
func (r *Run) CreatedRefs() []ResourceRef {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ResourceRef, len(r.created))
	copy(out, r.created)
	return out
}
