// Package namedrift detects when re-extracted task names have genuinely
// changed, as opposed to drifting within handwriting-recognition noise, and
// applies the changes as narrow per-record store patches.
package namedrift
