// Package stability turns noisy per-frame detection sets into readiness
// signals: full-page-view readiness (the page is fully visible and at rest)
// and one-shot initial-scan readiness (a page has come into view for the
// first time). Both detectors are pure state machines over frame history and
// perform no I/O.
package stability
