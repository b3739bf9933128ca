package resourcestore

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytebank/go-finance-cache/cache"
	"github.com/bytebank/go-finance-cache/finance"
	"github.com/bytebank/go-finance-cache/internal/cacheinfra"
	"github.com/bytebank/go-finance-cache/pkg/testsupport"
)

type storeFixture struct {
	store   *Store
	cache   cache.Service
	durable *testsupport.MemoryStore
	clock   *testsupport.Clock
	remote  *testsupport.FakeRemote
	keys    cache.KeyBuilder
}

// newFixture wires a store against in-memory fakes sharing one manual
// clock. wrap, when non-nil, decorates the fake remote before the store
// sees it.
func newFixture(t *testing.T, wrap func(finance.RemoteSource) finance.RemoteSource) *storeFixture {
	t.Helper()

	durable := testsupport.NewMemoryStore()
	clock := testsupport.NewClock(time.UnixMilli(1700000000000))
	cfg := cache.DefaultConfig()

	svc, err := cacheinfra.New(durable, cfg, nil, cacheinfra.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("cacheinfra.New failed: %v", err)
	}

	fake := testsupport.NewFakeRemote(clock.Now)
	var remote finance.RemoteSource = fake
	if wrap != nil {
		remote = wrap(fake)
	}

	store, err := New(svc, remote, cfg, nil, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	return &storeFixture{
		store:   store,
		cache:   svc,
		durable: durable,
		clock:   clock,
		remote:  fake,
		keys:    cfg.Keys(),
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestStore_FetchTransactions_MissGoesToRemote(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.remote.Seed("u1", testsupport.Tx("u1", "salary", 5000, finance.Income, f.clock.Now()))

	f.store.FetchTransactions(ctx, "u1")

	snap := f.store.Transactions()
	if len(snap.Data) != 1 || snap.Data[0].Description != "salary" {
		t.Fatalf("snapshot data = %+v, want the seeded transaction", snap.Data)
	}
	if snap.Loading || snap.Err != "" {
		t.Errorf("snapshot = %+v, want settled without error", snap)
	}
	if got := f.remote.Calls("Transactions"); got != 1 {
		t.Errorf("remote calls = %d, want 1", got)
	}
	if !f.durable.Contains(f.keys.Key(cache.KindTransactions, "u1")) {
		t.Error("a successful fetch should populate the cache")
	}
}

// gatedRemote delays Transactions calls while a gate is installed, letting
// tests observe the window between a cached publish and its background
// revalidation.
type gatedRemote struct {
	finance.RemoteSource
	mu   sync.Mutex
	gate chan struct{}
}

func (g *gatedRemote) hold() chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate = make(chan struct{})
	return g.gate
}

func (g *gatedRemote) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gate != nil {
		close(g.gate)
		g.gate = nil
	}
}

func (g *gatedRemote) Transactions(ctx context.Context, ownerID string) ([]finance.Transaction, error) {
	g.mu.Lock()
	gate := g.gate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return g.RemoteSource.Transactions(ctx, ownerID)
}

func TestStore_FetchTransactions_StaleWhileRevalidate(t *testing.T) {
	var gated *gatedRemote
	f := newFixture(t, func(inner finance.RemoteSource) finance.RemoteSource {
		gated = &gatedRemote{RemoteSource: inner}
		return gated
	})
	ctx := context.Background()

	txA := testsupport.Tx("u1", "first", 10, finance.Income, f.clock.Now().Add(-time.Hour))
	f.remote.Seed("u1", txA)

	f.store.FetchTransactions(ctx, "u1")
	if got := f.remote.Calls("Transactions"); got != 1 {
		t.Fatalf("remote calls after first fetch = %d, want 1", got)
	}

	txB := testsupport.Tx("u1", "second", 20, finance.Expense, f.clock.Now())
	f.remote.Seed("u1", txB)

	// Past the debounce window, inside the transactions TTL.
	f.clock.Advance(3 * time.Second)
	gated.hold()

	f.store.FetchTransactions(ctx, "u1")

	snap := f.store.Transactions()
	if len(snap.Data) != 1 || snap.Data[0].Description != "first" {
		t.Fatalf("cached snapshot = %+v, want only the first transaction", snap.Data)
	}
	if snap.Loading || snap.Err != "" {
		t.Errorf("cached publish should settle the snapshot, got %+v", snap)
	}
	if got := f.remote.Calls("Transactions"); got != 1 {
		t.Errorf("remote calls before revalidation = %d, want 1", got)
	}

	gated.release()
	waitFor(t, func() bool { return len(f.store.Transactions().Data) == 2 })

	if got := f.remote.Calls("Transactions"); got != 2 {
		t.Errorf("remote calls after revalidation = %d, want 2", got)
	}
	snap = f.store.Transactions()
	if snap.Data[0].Description != "second" {
		t.Errorf("revalidated data should be newest first, got %+v", snap.Data)
	}
}

func TestStore_FetchTransactions_Deduplication(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.remote.Seed("u1", testsupport.Tx("u1", "salary", 5000, finance.Income, f.clock.Now()))

	f.store.FetchTransactions(ctx, "u1")
	f.store.FetchTransactions(ctx, "u1")
	f.store.FetchTransactions(ctx, "u1")

	if got := f.remote.Calls("Transactions"); got != 1 {
		t.Errorf("remote calls = %d, want repeats inside the window suppressed to 1", got)
	}
}

func TestStore_FetchTransactions_ExpiredCacheFallback(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.remote.Seed("u1", testsupport.Tx("u1", "salary", 5000, finance.Income, f.clock.Now()))

	f.store.FetchTransactions(ctx, "u1")

	// Transactions TTL is 10s; the entry is now expired but still stored.
	f.clock.Advance(30 * time.Second)
	f.remote.ReadErr = errors.New("network unreachable")

	f.store.FetchTransactions(ctx, "u1")

	snap := f.store.Transactions()
	if len(snap.Data) != 1 || snap.Data[0].Description != "salary" {
		t.Fatalf("snapshot data = %+v, want the expired cached value", snap.Data)
	}
	if !strings.Contains(snap.Err, "showing cached data") {
		t.Errorf("snapshot err = %q, want a stale-data notice", snap.Err)
	}
	if !f.durable.Contains(f.keys.Key(cache.KindTransactions, "u1")) {
		t.Error("the fallback read must not destroy the expired entry")
	}
}

func TestStore_FetchTransactions_ErrorPreservesData(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.remote.Seed("u1", testsupport.Tx("u1", "salary", 5000, finance.Income, f.clock.Now()))

	f.store.FetchTransactions(ctx, "u1")

	// Remove the cache entry so the failing fetch has no fallback copy.
	f.cache.Remove(ctx, f.keys.Key(cache.KindTransactions, "u1"))
	f.clock.Advance(3 * time.Second)
	f.remote.ReadErr = errors.New("boom")

	f.store.FetchTransactions(ctx, "u1")

	snap := f.store.Transactions()
	if snap.Err != "boom" {
		t.Errorf("snapshot err = %q, want %q", snap.Err, "boom")
	}
	if len(snap.Data) != 1 {
		t.Errorf("a failed fetch must preserve the previous data, got %+v", snap.Data)
	}
	if snap.Loading {
		t.Error("a failed fetch must clear the loading flag")
	}
}

func TestStore_RefreshAll(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.remote.SetProfile(&finance.UserProfile{ID: "u1", Name: "Ana", Balance: 100})
	f.remote.Seed("u1", testsupport.Tx("u1", "salary", 5000, finance.Income, f.clock.Now()))

	f.store.RefreshAll(ctx, "u1")

	if len(f.store.Transactions().Data) != 1 {
		t.Error("transactions snapshot should be populated")
	}
	if len(f.store.Summary().Data) != 3 {
		t.Errorf("summary snapshot = %+v, want three cards", f.store.Summary().Data)
	}
	if len(f.store.MonthlySummaries().Data) != 1 {
		t.Error("monthly summaries snapshot should be populated")
	}
	for _, method := range []string{"Transactions", "Summary", "MonthlySummaries"} {
		if got := f.remote.Calls(method); got != 1 {
			t.Errorf("remote %s calls = %d, want 1", method, got)
		}
	}
}

func TestStore_CreateTransaction_RefreshesDerivedData(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.remote.SetProfile(&finance.UserProfile{ID: "u1", Balance: 0})

	// A foreign owner's cached entry must survive the invalidation.
	foreignKey := f.keys.Key(cache.KindTransactions, "u2")
	f.durable.Put(foreignKey, "untouched")

	created, err := f.store.CreateTransaction(ctx, "u1", finance.TransactionInput{
		Description: "rent",
		Category:    "Moradia",
		Price:       1200,
		Type:        finance.Expense,
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	if created == nil || created.ID == "" {
		t.Fatalf("created = %+v, want a transaction with an id", created)
	}

	snap := f.store.Transactions()
	if len(snap.Data) != 1 || snap.Data[0].Description != "rent" {
		t.Errorf("transactions snapshot = %+v, want the created transaction", snap.Data)
	}
	if len(f.store.Summary().Data) != 3 {
		t.Error("summary snapshot should be refreshed after the write")
	}
	if len(f.store.MonthlySummaries().Data) != 1 {
		t.Error("monthly summaries snapshot should be refreshed after the write")
	}

	value, ok, _ := f.durable.GetItem(ctx, foreignKey)
	if !ok || value != "untouched" {
		t.Error("another owner's cache entry must not be invalidated")
	}
}

func TestStore_CreateTransaction_WriteErrorPropagates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	boom := errors.New("insert failed")
	f.remote.WriteErr = boom

	// Populate the cache first so we can prove the failed write spares it.
	f.remote.Seed("u1", testsupport.Tx("u1", "salary", 5000, finance.Income, f.clock.Now()))
	f.store.FetchTransactions(ctx, "u1")
	key := f.keys.Key(cache.KindTransactions, "u1")

	_, err := f.store.CreateTransaction(ctx, "u1", finance.TransactionInput{Description: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("CreateTransaction error = %v, want the remote error verbatim", err)
	}
	if !f.durable.Contains(key) {
		t.Error("a failed write must leave the cache untouched")
	}
	if got := f.remote.Calls("Transactions"); got != 1 {
		t.Errorf("a failed write must not trigger a refresh, remote calls = %d", got)
	}
}

func TestStore_TransactionByID(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	tx := testsupport.Tx("u1", "salary", 5000, finance.Income, f.clock.Now())
	f.remote.Seed("u1", tx)

	got, err := f.store.TransactionByID(ctx, tx.ID)
	if err != nil {
		t.Fatalf("TransactionByID failed: %v", err)
	}
	if got == nil || got.ID != tx.ID {
		t.Fatalf("TransactionByID = %+v, want the seeded transaction", got)
	}

	// Second lookup is served from cache.
	got, err = f.store.TransactionByID(ctx, tx.ID)
	if err != nil || got == nil || got.ID != tx.ID {
		t.Fatalf("cached lookup = (%+v, %v), want a hit", got, err)
	}
	if calls := f.remote.Calls("TransactionByID"); calls != 1 {
		t.Errorf("remote calls = %d, want the second lookup cached", calls)
	}

	// Unknown ids resolve to nil without an error.
	got, err = f.store.TransactionByID(ctx, "no-such-id")
	if err != nil || got != nil {
		t.Errorf("unknown id = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestStore_DeleteAllTransactions_EvictsByIDEntries(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	tx := testsupport.Tx("u1", "salary", 5000, finance.Income, f.clock.Now())
	f.remote.Seed("u1", tx)

	if _, err := f.store.TransactionByID(ctx, tx.ID); err != nil {
		t.Fatalf("TransactionByID failed: %v", err)
	}
	byIDKey := f.keys.Key(cache.KindTransactionByID, tx.ID)
	if !f.durable.Contains(byIDKey) {
		t.Fatal("the by-id lookup should have cached the transaction")
	}

	if err := f.store.DeleteAllTransactions(ctx, "u1"); err != nil {
		t.Fatalf("DeleteAllTransactions failed: %v", err)
	}

	if f.durable.Contains(byIDKey) {
		t.Error("delete-all must evict cached by-id entries of the owner")
	}
	if len(f.store.Transactions().Data) != 0 {
		t.Errorf("transactions snapshot = %+v, want empty after delete-all", f.store.Transactions().Data)
	}

	got, err := f.store.TransactionByID(ctx, tx.ID)
	if err != nil || got != nil {
		t.Errorf("lookup after delete-all = (%+v, %v), want (nil, nil)", got, err)
	}
}

func TestStore_Clear(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.remote.SetProfile(&finance.UserProfile{ID: "u1", Balance: 50})
	f.remote.Seed("u1", testsupport.Tx("u1", "salary", 5000, finance.Income, f.clock.Now()))

	f.store.RefreshAll(ctx, "u1")
	f.store.FetchProfile(ctx, "u1")

	f.store.Clear(ctx, "u1")

	if len(f.store.Transactions().Data) != 0 || len(f.store.Summary().Data) != 0 {
		t.Error("Clear must reset the in-memory snapshots")
	}
	if f.store.Profile().Data != nil {
		t.Error("Clear must reset the profile snapshot")
	}
	for _, key := range f.keys.OwnerKeys("u1") {
		if f.durable.Contains(key) {
			t.Errorf("Clear must remove the owner's cache entry %q", key)
		}
	}

	// Guard state is gone too: a refetch right after Clear is not debounced.
	f.store.FetchTransactions(ctx, "u1")
	if got := f.remote.Calls("Transactions"); got != 2 {
		t.Errorf("remote calls after Clear = %d, want an immediate refetch", got)
	}
}
