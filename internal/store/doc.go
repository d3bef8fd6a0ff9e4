// Package store provides SQLite-backed storage for recorded sweeps.
//
// A run row holds the sweep range, the parameters it was computed from (as
// canonical JSON together with their content-addressed ID) and the derived
// critical points. Samples are stored one row per angle, keyed by run and
// index.
//
// # Ordering
//
//   - Samples are always read ORDER BY idx ASC
//   - Runs are listed ORDER BY created_at ASC, id ASC COLLATE BINARY
//
// Writing a run whose ID already exists is a no-op, so exports can be
// retried safely.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Samples cascade with their run
//
// Parameter IDs are computed by internal/canon using canonical JSON and
// SHA-256 with domain separation.
package store
