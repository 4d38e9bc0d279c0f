// Package task defines the persistent task and daily-record data model, the
// composite-key encoding used for store document IDs, and the tolerant time
// parsing shared by the reconciliation engine.
package task
