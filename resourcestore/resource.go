package resourcestore

import (
	"sync"
	"time"
)

// Snapshot is the published state of one resource kind. Data always holds
// the last good value; Err carries the latest failure without clearing it.
type Snapshot[T any] struct {
	Data      T
	Loading   bool
	Err       string
	LastFetch time.Time
}

// resource holds the in-memory state and subscriber list for a single
// resource kind. Publishes are single state assignments under the mutex, so
// readers never observe a torn snapshot.
type resource[T any] struct {
	mu      sync.Mutex
	snap    Snapshot[T]
	subs    map[int]func(Snapshot[T])
	nextSub int
}

func (r *resource[T]) snapshot() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// markLoading transitions the resource into the Loading state and clears
// the previous error.
func (r *resource[T]) markLoading() {
	r.mu.Lock()
	r.snap.Loading = true
	r.snap.Err = ""
	snap, fns := r.snap, r.callbacks()
	r.mu.Unlock()
	notify(snap, fns)
}

// publishData installs data resolved by the fetch that started at start.
// A resolution is discarded when a newer fetch already landed, so a slow
// background refresh cannot regress fresher data. Reports whether the
// publish was applied.
func (r *resource[T]) publishData(start time.Time, data T) bool {
	r.mu.Lock()
	if r.snap.LastFetch.After(start) {
		r.mu.Unlock()
		return false
	}
	r.snap = Snapshot[T]{Data: data, LastFetch: start}
	snap, fns := r.snap, r.callbacks()
	r.mu.Unlock()
	notify(snap, fns)
	return true
}

// publishStale installs cached data together with an informational error,
// used when the remote fetch failed but an old cache entry exists.
func (r *resource[T]) publishStale(start time.Time, data T, msg string) bool {
	r.mu.Lock()
	if r.snap.LastFetch.After(start) {
		r.mu.Unlock()
		return false
	}
	r.snap = Snapshot[T]{Data: data, Err: msg, LastFetch: start}
	snap, fns := r.snap, r.callbacks()
	r.mu.Unlock()
	notify(snap, fns)
	return true
}

// publishError records a failure while preserving the last good data. It
// does not advance LastFetch.
func (r *resource[T]) publishError(start time.Time, msg string) {
	r.mu.Lock()
	if r.snap.LastFetch.After(start) {
		r.mu.Unlock()
		return
	}
	r.snap.Loading = false
	r.snap.Err = msg
	snap, fns := r.snap, r.callbacks()
	r.mu.Unlock()
	notify(snap, fns)
}

// reset returns the resource to its initial state, e.g. on sign-out.
func (r *resource[T]) reset() {
	r.mu.Lock()
	r.snap = Snapshot[T]{}
	snap, fns := r.snap, r.callbacks()
	r.mu.Unlock()
	notify(snap, fns)
}

// subscribe registers fn, delivers the current snapshot immediately, and
// returns a cancel func that is safe to call more than once.
func (r *resource[T]) subscribe(fn func(Snapshot[T])) func() {
	r.mu.Lock()
	if r.subs == nil {
		r.subs = make(map[int]func(Snapshot[T]))
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	current := r.snap
	r.mu.Unlock()

	fn(current)

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// callbacks copies the subscriber list; the caller must hold r.mu.
func (r *resource[T]) callbacks() []func(Snapshot[T]) {
	if len(r.subs) == 0 {
		return nil
	}
	fns := make([]func(Snapshot[T]), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	return fns
}

// notify runs outside the resource lock so subscribers may call back into
// the store.
func notify[T any](snap Snapshot[T], fns []func(Snapshot[T])) {
	for _, fn := range fns {
		fn(snap)
	}
}
