// Package snapshot caches the last successful extraction in memory to enable
// the reorder-only fast path. The cache is an optimization hint with no
// authority over persisted state.
package snapshot
