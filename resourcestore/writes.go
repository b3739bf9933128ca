package resourcestore

import (
	"context"

	"github.com/bytebank/go-finance-cache/cache"
	"github.com/bytebank/go-finance-cache/finance"
)

// CreateTransaction performs the remote write and, on success, invalidates
// and refreshes every kind derived from it (transactions, summary, monthly
// summaries). A failed write leaves the cache untouched and is returned
// verbatim: the caller must know a financial write did not happen.
func (s *Store) CreateTransaction(ctx context.Context, ownerID string, input finance.TransactionInput) (*finance.Transaction, error) {
	created, err := s.remote.CreateTransaction(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}

	s.invalidateDerived(ctx, ownerID)
	s.refreshAll(ctx, ownerID, true)
	return created, nil
}

// DeleteAllTransactions removes every transaction of an owner remotely,
// then evicts the owner's derived cache entries, including any individually
// cached transactions, and refreshes.
func (s *Store) DeleteAllTransactions(ctx context.Context, ownerID string) error {
	if err := s.remote.DeleteAllTransactions(ctx, ownerID); err != nil {
		return err
	}

	s.invalidateDerived(ctx, ownerID)
	s.byIDOwners.Range(func(id, owner string) bool {
		if owner == ownerID {
			s.cache.Remove(ctx, s.keys.Key(cache.KindTransactionByID, id))
			s.byIDOwners.Delete(id)
		}
		return true
	})
	s.refreshAll(ctx, ownerID, true)
	return nil
}

// TransactionByID resolves a single transaction read-through: cache first,
// then the remote source, collapsing concurrent misses for the same id.
// Returns nil without error when the transaction does not exist.
func (s *Store) TransactionByID(ctx context.Context, id string) (*finance.Transaction, error) {
	key := s.keys.Key(cache.KindTransactionByID, id)
	if tx, ok := cache.Get[*finance.Transaction](ctx, s.cache, key); ok {
		return tx, nil
	}

	v, err, _ := s.byID.Do(id, func() (any, error) {
		tx, err := s.remote.TransactionByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if tx != nil {
			s.cache.Set(ctx, key, tx, s.ttl.For(cache.KindTransactionByID))
			s.byIDOwners.Store(id, tx.OwnerID)
		}
		return tx, nil
	})
	if err != nil {
		return nil, err
	}
	tx, _ := v.(*finance.Transaction)
	return tx, nil
}

// invalidateDerived drops the owner's cache entries for every kind computed
// from the transaction collection.
func (s *Store) invalidateDerived(ctx context.Context, ownerID string) {
	s.cache.Remove(ctx, s.keys.Key(cache.KindTransactions, ownerID))
	s.cache.Remove(ctx, s.keys.Key(cache.KindSummary, ownerID))
	s.cache.Remove(ctx, s.keys.Key(cache.KindMonthlySummaries, ownerID))
}
