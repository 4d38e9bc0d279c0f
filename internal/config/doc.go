// Package config loads, normalizes, and validates cardwatch configuration
// from TOML. Defaults mirror the tuning the trigger state machine was
// calibrated with; Load applies file values on top of Default and fails fast
// on unusable settings.
package config
