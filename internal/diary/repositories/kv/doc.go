// Package kv provides the string key/value area the diary persists into.
//
// Two implementations share one contract:
//
//   - SQLiteStore keeps the pairs in a single SQLite table (modernc.org/sqlite,
//     schema managed by goose) and enforces a byte quota inside a transaction.
//   - MemoryStore keeps them in a map; used by tests and by in-memory runs.
//
// Writes are all-or-nothing per key. Usage is estimated as the sum of
// len(key)+len(value) over all pairs, in bytes.
package kv
