// Package detect defines the detection data model shared by the stability
// detectors and the trigger state machine, plus the order-fingerprint
// extractor that reduces a frame's detections to a top-to-bottom sequence of
// status symbols.
package detect
