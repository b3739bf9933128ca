// Package resourcestore keeps per-resource-kind state in front of a remote
// data source, using the cache layer as a staleness-tolerant buffer.
//
// # Read path
//
// Each Fetch* call walks the same algorithm:
//
//  1. A de-duplication guard drops the call silently when a fetch for the
//     same (kind, owner) pair is in flight or completed within the debounce
//     window. Focus events, pull-to-refresh and double taps collapse into
//     one remote call.
//  2. On a valid cache hit the cached value is published immediately and a
//     background goroutine revalidates against the remote source,
//     republishing when done (stale-while-revalidate).
//  3. On a miss the remote source is consulted in the foreground and the
//     result is cached and published.
//  4. When the remote fails, an expired cache entry is served with an
//     informational error rather than clearing good data; only a failure
//     with no cache at all surfaces as a plain error snapshot.
//
// Publishes are ordered by fetch start time: a slow background refresh
// never overwrites the result of a newer fetch.
//
// # Write path
//
// Writes are not fail-soft. The remote mutation runs first and its error is
// returned unchanged; only a successful write invalidates the derived cache
// entries and forces a synchronous refresh so the UI reflects the change
// without waiting for the next natural fetch.
//
// # Fan-out
//
// Subscribe* methods deliver the current snapshot immediately and every
// subsequent publish. The returned cancel func may be called any number of
// times.
package resourcestore
