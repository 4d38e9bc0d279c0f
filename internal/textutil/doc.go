// Package textutil provides the text comparison primitives behind name-drift
// detection: Unicode-aware normalization, word-level diffs, and a
// matching-block similarity ratio.
package textutil
