// Package logging wires log/slog with cardwatch conventions: a console
// handler for interactive use, a JSON handler for files and machine
// consumption, typed attribute helpers, and standardized field keys so log
// queries stay consistent across components.
package logging
