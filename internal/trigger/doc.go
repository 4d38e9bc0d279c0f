// Package trigger decides, once per frame, whether to run a full text
// extraction, a cheap reorder-only update, wait for the page to come fully
// into view, or do nothing. Decisions are driven by the actionable symbol
// count relative to a baseline, the stability detectors, and per-action
// cooldown counters.
package trigger
