package resourcestore

import (
	"sync"
	"time"

	"github.com/bytebank/go-finance-cache/cache"
)

type guardKey struct {
	kind  cache.Kind
	owner string
}

type guardEntry struct {
	inFlight      bool
	lastCompleted time.Time
}

// fetchGuard suppresses redundant fetches per (kind, owner) pair: at most
// one in flight, and none within the debounce window of the last completed
// one. Its state is process-scoped and disposable; nothing needs recovery
// after a restart.
type fetchGuard struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	entries map[guardKey]*guardEntry
}

func newFetchGuard(window time.Duration, now func() time.Time) *fetchGuard {
	return &fetchGuard{
		window:  window,
		now:     now,
		entries: make(map[guardKey]*guardEntry),
	}
}

// begin reports whether a fetch for the pair may proceed and, if so,
// atomically marks it in flight. Forced fetches skip the debounce window
// but still coalesce with an in-flight fetch.
func (g *fetchGuard) begin(kind cache.Kind, ownerID string, force bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := guardKey{kind: kind, owner: ownerID}
	entry := g.entries[key]
	if entry == nil {
		entry = &guardEntry{}
		g.entries[key] = entry
	}

	if entry.inFlight {
		return false
	}
	if !force && !entry.lastCompleted.IsZero() && g.now().Sub(entry.lastCompleted) < g.window {
		return false
	}

	entry.inFlight = true
	return true
}

// finish clears the in-flight marker and stamps the completion time. It
// runs unconditionally on completion or failure.
func (g *fetchGuard) finish(kind cache.Kind, ownerID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry := g.entries[guardKey{kind: kind, owner: ownerID}]
	if entry == nil {
		return
	}
	entry.inFlight = false
	entry.lastCompleted = g.now()
}

// reset drops all in-flight and debounce state.
func (g *fetchGuard) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = make(map[guardKey]*guardEntry)
}
