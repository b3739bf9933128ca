package cache

import (
	"context"
	"time"
)

// Store is the durable key-value collaborator the cache persists into. It is
// shared with the rest of the application, so the cache only ever touches
// keys under its own prefix. Every operation is an atomic single-key access;
// bulk removals are sequences of independent deletes.
type Store interface {
	// GetItem returns the raw value for key. ok is false when absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)

	// SetItem stores value under key, overwriting any prior value.
	SetItem(ctx context.Context, key, value string) error

	// RemoveItem deletes key. Absence is not an error.
	RemoveItem(ctx context.Context, key string) error

	// MultiRemove deletes every listed key.
	MultiRemove(ctx context.Context, keys []string) error

	// Keys returns every key in the store. Used only for prefix-scanning
	// bulk clears.
	Keys(ctx context.Context) ([]string, error)
}

// Service is the read/write surface of the cache layer. The cache is an
// optimization, never a dependency: no operation reports an error to its
// caller. Durable-store faults and corrupt entries degrade to "as if no
// cache existed" and are logged only.
type Service interface {
	// Set wraps payload in an envelope stamped with the current time and
	// ttl (DefaultTTL when ttl <= 0) and writes it to the durable store.
	Set(ctx context.Context, key string, payload any, ttl time.Duration)

	// Get loads the entry at key into dest, which must be a pointer.
	// Expired and corrupt entries are deleted and reported as a miss.
	Get(ctx context.Context, key string, dest any) bool

	// Peek loads the entry at key into dest without side effects, reporting
	// whether it was found and whether it has exceeded its TTL. It exists so
	// callers can fall back to expired data when the remote source fails.
	Peek(ctx context.Context, key string, dest any) (hit, expired bool)

	// IsValid reports whether a live entry exists at key. Prefer Get:
	// IsValid performs the same round-trip and discards the payload.
	IsValid(ctx context.Context, key string) bool

	// Remove deletes the entry at key. Idempotent.
	Remove(ctx context.Context, key string)

	// Clear deletes every entry under the cache prefix, leaving unrelated
	// durable-store keys untouched.
	Clear(ctx context.Context)

	// ClearOwner deletes exactly the owner-scoped keys for ownerID.
	ClearOwner(ctx context.Context, ownerID string)

	// ClearExpired sweeps entries under the prefix whose TTL has elapsed,
	// along with any that no longer decode.
	ClearExpired(ctx context.Context)
}

// Get is a type-safe wrapper around Service.Get.
func Get[T any](ctx context.Context, s Service, key string) (T, bool) {
	var v T
	if !s.Get(ctx, key, &v) {
		var zero T
		return zero, false
	}
	return v, true
}

// Peek is a type-safe wrapper around Service.Peek.
func Peek[T any](ctx context.Context, s Service, key string) (v T, hit, expired bool) {
	hit, expired = s.Peek(ctx, key, &v)
	if !hit {
		var zero T
		return zero, false, false
	}
	return v, hit, expired
}
