// Package store provides SQLite-backed durable storage for evaluation runs.
//
// The store is an append-only log with:
//   - Runs: one row per graph evaluation (graph name, content hash, policy)
//   - Op records: one row per evaluated op (shape and names, or error)
//
// # Ordering
//
//   - Records are ordered by seq (logical clock), NEVER by timestamps
//   - Runs are listed by id; UUIDv7 run ids sort by creation time
//   - All queries use an explicit ORDER BY so results are identical across
//     reads
//
// # Names
//
// Names are stored as JSON: null for an unnamed result, otherwise an
// array where null is the wildcard. "Unnamed" and "all wildcards" survive
// a round trip as different values.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
