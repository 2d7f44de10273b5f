// Package repositories implements SQLite persistence for the client's local history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [JobRepository] : playlist download jobs and their final state
//   - [ConversionRepository] : files produced by one-shot tool calls
//   - [JobHistory] : adapts [JobRepository] to the poller's transition feed
//
// Sequence numbers provide stable, human-readable ordering (e.g., job #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
