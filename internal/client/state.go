package client

import (
	"sync"
	"time"
)

// Phase tracks where an async fetch stands.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseFulfilled
	PhaseRejected
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePending:
		return "pending"
	case PhaseFulfilled:
		return "fulfilled"
	case PhaseRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Resource caches the result of a fetch together with its phase. A rejection
// records the error but keeps the last fulfilled value, so callers can keep
// showing stale data while reporting the failure.
type Resource[T any] struct {
	mu        sync.RWMutex
	phase     Phase
	value     T
	hasValue  bool
	err       error
	fetchedAt time.Time
}

// Do runs fetch, moving the resource through pending into fulfilled or
// rejected, and returns the fetch result unchanged.
func (r *Resource[T]) Do(fetch func() (T, error)) (T, error) {
	r.begin()
	value, err := fetch()
	if err != nil {
		r.reject(err)
		return value, err
	}
	r.resolve(value)
	return value, nil
}

func (r *Resource[T]) begin() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = PhasePending
}

func (r *Resource[T]) resolve(value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = PhaseFulfilled
	r.value = value
	r.hasValue = true
	r.err = nil
	r.fetchedAt = time.Now()
}

func (r *Resource[T]) reject(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phase = PhaseRejected
	r.err = err
}

// Get returns the last fulfilled value and whether one exists. The value
// survives later rejections.
func (r *Resource[T]) Get() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.hasValue
}

// Phase returns the current phase.
func (r *Resource[T]) Phase() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase
}

// Err returns the error from the last rejection, nil after a fulfillment.
func (r *Resource[T]) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// FetchedAt returns when the value was last fulfilled.
func (r *Resource[T]) FetchedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fetchedAt
}

// Reset returns the resource to idle, dropping any cached value.
func (r *Resource[T]) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	r.phase = PhaseIdle
	r.value = zero
	r.hasValue = false
	r.err = nil
	r.fetchedAt = time.Time{}
}
