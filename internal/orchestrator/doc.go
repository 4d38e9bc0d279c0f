// Package orchestrator runs the frame loop: it feeds detection frames to the
// trigger state machine and dispatches the resulting extraction and
// reconciliation actions to a single background worker. Manual controls for
// scan, fast update, auto mode, and latch reset live here too.
package orchestrator
