// Package store persists daily records in SQLite: task documents keyed by
// escaped composite key, append-only audit snapshots keyed by write
// timestamp, daily metadata, and the project catalog. Writes are merge-based
// where the reconciliation engine requires it.
package store
