// Package logs provides file tailing helpers for the CLI.
//
// It reads log files with bounded memory usage, supports "last N lines"
// reads, and powers follow-mode updates for `cardwatch logs --follow`.
// Callers supply a context so follow polling shuts down cleanly when the
// CLI exits.
package logs
