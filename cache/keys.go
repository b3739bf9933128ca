package cache

import "strings"

// KeySeparator delimits the resource kind from the owner or entity id
// inside a cache key.
const KeySeparator = ":"

// Kind identifies a logical category of cached data. Each kind has its own
// TTL and key namespace.
type Kind string

const (
	KindTransactions     Kind = "transactions"
	KindSummary          Kind = "summary"
	KindMonthlySummaries Kind = "monthly_summaries"
	KindUserProfile      Kind = "user"

	// KindTransactionByID is keyed by transaction id rather than owner id.
	// It is excluded from OwnerKeys on purpose: individual transaction
	// entries expire by TTL or are evicted by an explicit id-based remove.
	KindTransactionByID Kind = "transaction"
)

// OwnerKinds returns the resource kinds whose cache keys are scoped to an
// owner id, in a fixed order.
func OwnerKinds() []Kind {
	return []Kind{KindTransactions, KindSummary, KindMonthlySummaries, KindUserProfile}
}

// KeyBuilder derives cache keys from (resource kind, id) pairs. It is a pure
// value type; the same inputs always yield the same key.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a KeyBuilder using the provided global prefix.
func NewKeyBuilder(prefix string) KeyBuilder {
	return KeyBuilder{prefix: prefix}
}

// Prefix returns the global key prefix.
func (b KeyBuilder) Prefix() string {
	return b.prefix
}

// Key builds the cache key for a resource kind and an owner or entity id,
// e.g. "@ByteBank:cache:transactions:user123".
func (b KeyBuilder) Key(kind Kind, id string) string {
	return b.prefix + string(kind) + KeySeparator + id
}

// OwnerKeys enumerates every owner-scoped cache key for the given owner id.
// Used for bulk per-owner invalidation, e.g. on sign-out.
func (b KeyBuilder) OwnerKeys(ownerID string) []string {
	kinds := OwnerKinds()
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, b.Key(kind, ownerID))
	}
	return keys
}

// Owns reports whether the given durable-store key belongs to this cache's
// namespace.
func (b KeyBuilder) Owns(key string) bool {
	return strings.HasPrefix(key, b.prefix)
}
