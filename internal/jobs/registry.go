// registry.go
//
// GO4IT builder: background generation, preview and deployment service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of go4it-builder.
// go4it-builder is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// go4it-builder is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with go4it-builder.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package jobs tracks the background generation, iteration and deployment jobs
// running in this process so they can be counted and cancelled.
package jobs

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/go4it/builder/internal/metrics"
)

// Kind labels a job for logs and metrics
type Kind string

const (
	KindGenerate Kind = "generate"
	KindIterate  Kind = "iterate"
	KindDeploy   Kind = "deploy"
)

// ErrActive is returned when a job is already tracked under the same key
var ErrActive = errors.New("job already active")

// ErrCancelled is the cancellation cause recorded for jobs stopped through Cancel
var ErrCancelled = errors.New("cancelled")

// Func is the body of a background job
type Func func(ctx context.Context) error

// Job is one tracked background task
type Job struct {
	Key       string
	Kind      Kind
	StartedAt time.Time

	cancel    context.CancelCauseFunc
	cancelled bool
	done      chan struct{}
}

// Done is closed once the job function has returned
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Registry is an in-memory map of running jobs keyed by generation (or org app) id.
// It does not survive restarts; the database status fields are the durable record.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*Job
	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// NewRegistry returns an empty registry. Jobs run detached from request contexts.
func NewRegistry() *Registry {
	base, stop := context.WithCancel(context.Background())
	return &Registry{
		jobs: make(map[string]*Job),
		base: base,
		stop: stop,
	}
}

// Start runs fn in its own goroutine under key. It returns ErrActive when a job with
// the same key is still running. fn's context is cancelled by Cancel or Shutdown.
func (r *Registry) Start(key string, kind Kind, fn Func) (*Job, error) {
	return r.StartClaimed(key, kind, nil, fn)
}

// StartClaimed reserves key before calling claim and starts fn only if claim succeeds.
// A failed claim drops the reservation and its error is returned as is. The claim
// therefore never runs while another job holds the key.
func (r *Registry) StartClaimed(key string, kind Kind, claim func() error, fn Func) (*Job, error) {
	r.mu.Lock()
	if _, ok := r.jobs[key]; ok {
		r.mu.Unlock()
		return nil, ErrActive
	}

	ctx, cancel := context.WithCancelCause(r.base)
	job := &Job{
		Key:       key,
		Kind:      kind,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	r.jobs[key] = job
	r.wg.Add(1)
	r.mu.Unlock()

	if claim != nil {
		if err := claim(); err != nil {
			cancel(nil)
			r.remove(job)
			close(job.done)
			r.wg.Done()
			return nil, err
		}
	}

	metrics.ActiveJobs.WithLabelValues(string(kind)).Inc()

	go func() {
		defer r.wg.Done()
		defer close(job.done)
		defer r.remove(job)

		err := fn(ctx)
		cancel(nil)

		result := "success"
		switch {
		case errors.Is(context.Cause(ctx), ErrCancelled):
			result = "cancelled"
		case err != nil:
			result = "failure"
			log.Printf("Job %s (%s) failed: %v", key, kind, err)
		}
		metrics.ActiveJobs.WithLabelValues(string(kind)).Dec()
		metrics.JobsTotal.WithLabelValues(string(kind), result).Inc()
		metrics.JobDuration.WithLabelValues(string(kind)).Observe(time.Since(job.StartedAt).Seconds())
	}()

	return job, nil
}

// remove drops the entry only if it still belongs to this job
func (r *Registry) remove(job *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.jobs[job.Key]; ok && current == job {
		delete(r.jobs, job.Key)
	}
}

// Cancel signals the job tracked under key. The entry stays until the job function
// returns, so the key cannot be restarted while its process is still shutting down.
// It reports false when no job was tracked or the job was already cancelled.
func (r *Registry) Cancel(key string) bool {
	r.mu.Lock()
	job, ok := r.jobs[key]
	if !ok || job.cancelled {
		r.mu.Unlock()
		return false
	}
	job.cancelled = true
	r.mu.Unlock()

	job.cancel(ErrCancelled)
	log.Printf("Job %s (%s) cancelled", key, job.Kind)
	return true
}

// Get returns the job tracked under key
func (r *Registry) Get(key string) (*Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[key]
	return job, ok
}

// IsActive reports whether a job is tracked under key, including one that was
// cancelled but has not returned yet
func (r *Registry) IsActive(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Active returns the number of tracked jobs
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Shutdown cancels every job and waits for them to return or for ctx to expire
func (r *Registry) Shutdown(ctx context.Context) error {
	r.stop()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every job started so far has returned
func (r *Registry) Wait() {
	r.wg.Wait()
}
