// Package daemon coordinates the long-running cardwatch process.
//
// It wires configuration, the task store, the frame source, and the
// orchestrator into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon exposes the control surface the IPC server
// forwards: status, manual scan and fast-update triggers, auto-mode toggle,
// latch reset, and read access to stored daily records.
//
// Keep lifecycle logic here: the frame loop itself lives in the orchestrator
// package while the daemon focuses on startup, shutdown, and coordination.
package daemon
