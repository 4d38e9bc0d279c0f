// Package frames delivers symbol-detection frames from the external detector
// to the orchestrator, either live from a spool directory or replayed from a
// recording.
package frames
