package resourcestore

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/bytebank/go-finance-cache/cache"
	"github.com/bytebank/go-finance-cache/finance"
)

// Store orchestrates reads and writes for every resource kind. Reads serve
// cached data immediately and revalidate in the background; writes hit the
// remote source first and only then invalidate and refresh the kinds
// derived from the written data.
type Store struct {
	cache  cache.Service
	keys   cache.KeyBuilder
	remote finance.RemoteSource
	ttl    cache.TTLConfig
	log    *zap.Logger
	now    func() time.Time
	guard  *fetchGuard

	transactions resource[[]finance.Transaction]
	summary      resource[[]finance.SummaryCard]
	monthly      resource[[]finance.MonthlySummary]
	profile      resource[*finance.UserProfile]

	// byID collapses concurrent cache misses for the same transaction id.
	byID singleflight.Group

	// byIDOwners tracks which owner each cached transaction:<id> entry
	// belongs to, so delete-all can evict entries that OwnerKeys cannot
	// enumerate.
	byIDOwners *xsync.MapOf[string, string]
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for fetch ordering and the
// debounce window.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New constructs a resource store on top of a cache service and a remote
// source. A nil logger is replaced with a no-op logger.
func New(svc cache.Service, remote finance.RemoteSource, cfg cache.Config, log *zap.Logger, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Store{
		cache:      svc,
		keys:       cfg.Keys(),
		remote:     remote,
		ttl:        cfg.TTL,
		log:        log,
		now:        time.Now,
		byIDOwners: xsync.NewMapOf[string, string](),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.guard = newFetchGuard(cfg.DebounceWindow, s.now)
	return s, nil
}

// FetchTransactions refreshes the transactions snapshot for an owner. The
// outcome arrives through the snapshot and subscribers, never as a return
// value; a suppressed duplicate fetch is a silent no-op.
func (s *Store) FetchTransactions(ctx context.Context, ownerID string) {
	fetchResource(ctx, s, &s.transactions, cache.KindTransactions, ownerID, false, s.remote.Transactions)
}

// FetchSummary refreshes the financial summary snapshot for an owner.
func (s *Store) FetchSummary(ctx context.Context, ownerID string) {
	fetchResource(ctx, s, &s.summary, cache.KindSummary, ownerID, false, s.remote.Summary)
}

// FetchMonthlySummaries refreshes the monthly summaries snapshot for an
// owner.
func (s *Store) FetchMonthlySummaries(ctx context.Context, ownerID string) {
	fetchResource(ctx, s, &s.monthly, cache.KindMonthlySummaries, ownerID, false, s.remote.MonthlySummaries)
}

// FetchProfile refreshes the user profile snapshot for an owner.
func (s *Store) FetchProfile(ctx context.Context, ownerID string) {
	fetchResource(ctx, s, &s.profile, cache.KindUserProfile, ownerID, false, s.remote.Profile)
}

// RefreshAll fetches transactions, summary and monthly summaries in
// parallel. Used to preload an owner's data after sign-in.
func (s *Store) RefreshAll(ctx context.Context, ownerID string) {
	s.refreshAll(ctx, ownerID, false)
}

// Transactions returns the current transactions snapshot.
func (s *Store) Transactions() Snapshot[[]finance.Transaction] {
	return s.transactions.snapshot()
}

// Summary returns the current summary snapshot.
func (s *Store) Summary() Snapshot[[]finance.SummaryCard] {
	return s.summary.snapshot()
}

// MonthlySummaries returns the current monthly summaries snapshot.
func (s *Store) MonthlySummaries() Snapshot[[]finance.MonthlySummary] {
	return s.monthly.snapshot()
}

// Profile returns the current user profile snapshot.
func (s *Store) Profile() Snapshot[*finance.UserProfile] {
	return s.profile.snapshot()
}

// SubscribeTransactions registers a callback for transactions snapshots.
// The callback receives the current snapshot immediately and every publish
// afterwards; the returned cancel func is idempotent.
func (s *Store) SubscribeTransactions(fn func(Snapshot[[]finance.Transaction])) func() {
	return s.transactions.subscribe(fn)
}

// SubscribeSummary registers a callback for summary snapshots.
func (s *Store) SubscribeSummary(fn func(Snapshot[[]finance.SummaryCard])) func() {
	return s.summary.subscribe(fn)
}

// SubscribeMonthlySummaries registers a callback for monthly summary
// snapshots.
func (s *Store) SubscribeMonthlySummaries(fn func(Snapshot[[]finance.MonthlySummary])) func() {
	return s.monthly.subscribe(fn)
}

// SubscribeProfile registers a callback for profile snapshots.
func (s *Store) SubscribeProfile(fn func(Snapshot[*finance.UserProfile])) func() {
	return s.profile.subscribe(fn)
}

// Clear resets every in-memory snapshot, drops the guard state and removes
// the owner's cache entries. Invoked on sign-out and on account switch so no
// data leaks across owners.
func (s *Store) Clear(ctx context.Context, ownerID string) {
	s.transactions.reset()
	s.summary.reset()
	s.monthly.reset()
	s.profile.reset()
	s.guard.reset()
	s.byIDOwners.Clear()
	s.cache.ClearOwner(ctx, ownerID)
}

func (s *Store) refreshAll(ctx context.Context, ownerID string, force bool) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetchResource(gctx, s, &s.transactions, cache.KindTransactions, ownerID, force, s.remote.Transactions)
		return nil
	})
	g.Go(func() error {
		fetchResource(gctx, s, &s.summary, cache.KindSummary, ownerID, force, s.remote.Summary)
		return nil
	})
	g.Go(func() error {
		fetchResource(gctx, s, &s.monthly, cache.KindMonthlySummaries, ownerID, force, s.remote.MonthlySummaries)
		return nil
	})
	_ = g.Wait()
}

// fetchResource runs the read-through algorithm for one resource kind:
// guard check, cached publish with background revalidation on a valid hit,
// foreground remote fetch on a miss, and expired-cache fallback when the
// remote fails.
func fetchResource[T any](
	ctx context.Context,
	s *Store,
	r *resource[T],
	kind cache.Kind,
	ownerID string,
	force bool,
	load func(context.Context, string) (T, error),
) {
	if !s.guard.begin(kind, ownerID, force) {
		return
	}

	start := s.now()
	key := s.keys.Key(kind, ownerID)
	r.markLoading()

	cached, hit, expired := cache.Peek[T](ctx, s.cache, key)
	if hit && !expired {
		// Stale-while-revalidate: satisfy the caller from cache and refresh
		// without blocking. The refresh outlives the caller's context.
		r.publishData(start, cached)

		bg := context.WithoutCancel(ctx)
		go func() {
			defer s.guard.finish(kind, ownerID)
			data, err := load(bg, ownerID)
			if err != nil {
				// The cached value was already published; keep it.
				s.log.Warn("background refresh failed",
					zap.String("kind", string(kind)),
					zap.String("owner", ownerID),
					zap.Error(err))
				return
			}
			s.cache.Set(bg, key, data, s.ttl.For(kind))
			if !r.publishData(start, data) {
				s.log.Debug("background refresh superseded",
					zap.String("kind", string(kind)),
					zap.String("owner", ownerID))
			}
		}()
		return
	}

	defer s.guard.finish(kind, ownerID)

	data, err := load(ctx, ownerID)
	if err != nil {
		if hit {
			// Expired data beats no data when the remote is unreachable.
			s.log.Warn("remote fetch failed, serving expired cache",
				zap.String("kind", string(kind)),
				zap.String("owner", ownerID),
				zap.Error(err))
			r.publishStale(start, cached, "showing cached data: "+err.Error())
			return
		}
		r.publishError(start, err.Error())
		return
	}

	s.cache.Set(ctx, key, data, s.ttl.For(kind))
	r.publishData(start, data)
}
