package bridge

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome is what eventually lands in a pending request's slot: either a
// result value or the failure the remote side reported.
type Outcome[T any] struct {
	Value T
	Err   error
}

type pendingEntry[T any] struct {
	slot      chan Outcome[T]
	createdAt time.Time
}

// Registry tracks in-flight requests by correlation id. Each entry holds a
// single-assignment slot: the slot channel is buffered for exactly one send,
// and the only send path is Resolve, which removes the entry first, so a slot
// can never be completed twice.
//
// One registry belongs to one bridge instance. Nothing here is global.
type Registry[T any] struct {
	mu      sync.Mutex
	pending map[string]pendingEntry[T]
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{pending: make(map[string]pendingEntry[T])}
}

// Register allocates a fresh correlation id and an unresolved slot. Safe for
// concurrent use; uuid collisions are not defended beyond the id's global
// uniqueness.
func (r *Registry[T]) Register() (string, <-chan Outcome[T]) {
	id := uuid.NewString()
	entry := pendingEntry[T]{
		slot:      make(chan Outcome[T], 1),
		createdAt: time.Now(),
	}

	r.mu.Lock()
	r.pending[id] = entry
	r.mu.Unlock()

	return id, entry.slot
}

// Resolve removes the entry for id and completes its slot with out. Returns
// false if no entry exists, which the caller treats as a late or duplicate
// reply, not an error.
func (r *Registry[T]) Resolve(id string, out Outcome[T]) bool {
	r.mu.Lock()
	entry, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	entry.slot <- out
	return true
}

// Remove discards the entry without resolving it. Used after a timed-out or
// failed call so a late reply finds no waiter.
func (r *Registry[T]) Remove(id string) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// Len reports the number of in-flight requests. Diagnostic only; a steadily
// growing value means a leak.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// OldestAge reports how long the oldest pending request has been waiting,
// or zero when nothing is pending. Diagnostic only.
func (r *Registry[T]) OldestAge(now time.Time) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	var oldest time.Time
	for _, entry := range r.pending {
		if oldest.IsZero() || entry.createdAt.Before(oldest) {
			oldest = entry.createdAt
		}
	}
	if oldest.IsZero() {
		return 0
	}
	return now.Sub(oldest)
}
