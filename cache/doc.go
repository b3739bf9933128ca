// Package cache defines the contracts and data formats of the client-side
// cache layer: the durable-store collaborator interface, the envelope codec,
// the key registry and the cache service surface.
//
// # Overview
//
// Three interfaces anchor the package:
//
//   - Store: the durable string-keyed collaborator the cache persists into
//   - EntryCodec: serializes (payload, storedAt, ttl) envelopes
//   - Service: TTL-aware get/set/invalidate, fail-soft on every path
//
// The default Service implementation lives in internal/cacheinfra; durable
// store adapters live in internal/kvinfra.
//
// # Keys
//
// Cache keys are deterministic: a global prefix, a resource kind and an
// owner or entity id, e.g.
//
//	kb := cache.NewKeyBuilder(cache.DefaultPrefix)
//	key := kb.Key(cache.KindTransactions, "user123")
//	// "@ByteBank:cache:transactions:user123"
//
// KeyBuilder.OwnerKeys enumerates every owner-scoped key so a whole user can
// be invalidated at once on sign-out. Per-transaction entries
// (KindTransactionByID) are keyed by transaction id and intentionally left
// out of that enumeration; they expire by TTL or explicit removal.
//
// # Wire format
//
// The default JSONCodec writes one JSON object per key:
//
//	{"data": <any JSON value>, "timestamp": <integer ms>, "ttl": <integer ms>}
//
// Expiry is strict: an entry is valid while age <= ttl and expired once
// age > ttl, measured in milliseconds. MsgpackCodec offers a compact binary
// framing with identical semantics.
//
// # Failure policy
//
// The cache is a pure optimization. Service methods never return errors;
// store faults are logged and treated as misses, and values that fail to
// decode are deleted so the entry heals itself on the next write.
package cache
