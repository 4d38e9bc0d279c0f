// Package reconcile merges freshly extracted task state with previously
// persisted state: the timestamp state machine, the composite-key merge
// walk, the positional fast path, and the append-only audit snapshot.
package reconcile
