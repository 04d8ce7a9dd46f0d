package jobstore

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNotFound indicates the requested job does not exist.
var ErrNotFound = errors.New("job not found")

// IsNotFound returns true if the error indicates an unknown job id.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Store is the process-lifetime registry of jobs.
//
// All three operations hold the store lock for their full duration, and
// update functions run under it, so they must not perform blocking I/O:
// fetch and enrich first, then fold the outcome in.
type Store struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*Job)}
}

// Create registers a new job. The id must not already exist.
func (s *Store) Create(job *Job) error {
	if job == nil {
		return fmt.Errorf("jobstore: job is nil")
	}
	if job.ID == "" {
		return fmt.Errorf("jobstore: job id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("jobstore: duplicate job id %s", job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

// Get returns a deep-copy snapshot of a job, so a concurrent Update cannot
// alter data already handed to the caller.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return job.Clone(), nil
}

// Update applies fn to the stored job atomically and stamps LastUpdated.
//
// Terminal jobs are immutable; fn is not applied to them.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if job.Status.Terminal() {
		return nil
	}

	fn(job)
	job.LastUpdated = time.Now().UTC()
	return nil
}

// Len reports the number of jobs ever created in this process.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
