package stability

import (
	"math"

	"cardwatch/internal/detect"
)

// FullViewConfig tunes the full-page-view readiness detector.
type FullViewConfig struct {
	// PositionThresholdPx is the maximum distance a symbol may move between
	// two consecutive frames and still count as the same symbol at rest.
	PositionThresholdPx float64
	// RequiredStableFrames is the consecutive stable run needed before the
	// detector reports readiness.
	RequiredStableFrames int
	// HistorySize bounds the retained position history.
	HistorySize int
}

type symbolPosition struct {
	x, y  float64
	class detect.Class
}

// FullViewDetector reports when the page appears fully visible and at rest.
// It compares consecutive frames: the actionable symbol count must match and
// every symbol must find a same-class counterpart within the position
// threshold. Any instability resets the stable run to zero.
type FullViewDetector struct {
	cfg     FullViewConfig
	filter  detect.Filter
	history [][]symbolPosition
	stable  int
}

// NewFullViewDetector constructs a detector with the supplied tuning.
func NewFullViewDetector(cfg FullViewConfig, filter detect.Filter) *FullViewDetector {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 20
	}
	return &FullViewDetector{cfg: cfg, filter: filter}
}

// Observe feeds one frame and reports whether full-page-view readiness holds.
func (d *FullViewDetector) Observe(frame detect.Frame) bool {
	current := make([]symbolPosition, 0, len(frame.Detections))
	for _, det := range d.filter.Actionable(frame.Detections) {
		current = append(current, symbolPosition{
			x:     det.Box.CenterX(),
			y:     det.Box.CenterY(),
			class: det.Class,
		})
	}

	d.history = append(d.history, current)
	if len(d.history) > d.cfg.HistorySize {
		d.history = d.history[len(d.history)-d.cfg.HistorySize:]
	}

	if len(d.history) < 2 {
		return false
	}

	prev := d.history[len(d.history)-2]
	if len(current) != len(prev) {
		d.stable = 0
		return false
	}

	if positionsStable(current, prev, d.cfg.PositionThresholdPx) {
		d.stable++
	} else {
		d.stable = 0
	}

	return d.stable >= d.cfg.RequiredStableFrames
}

// Reset clears the stable run and history, used when the trigger machine
// begins a fresh wait for full view.
func (d *FullViewDetector) Reset() {
	d.stable = 0
	d.history = d.history[:0]
}

// StableFrames exposes the current stable run length for status rendering.
func (d *FullViewDetector) StableFrames() int {
	return d.stable
}

// positionsStable matches each current symbol to its nearest same-class
// counterpart in the previous frame. Matching is by class and proximity, not
// array index, so multiple same-class symbols each find their own closest
// neighbor.
func positionsStable(current, prev []symbolPosition, threshold float64) bool {
	for _, cur := range current {
		best := math.Inf(1)
		for _, old := range prev {
			if old.class != cur.class {
				continue
			}
			dist := math.Hypot(cur.x-old.x, cur.y-old.y)
			if dist < best {
				best = dist
			}
		}
		if best > threshold {
			return false
		}
	}
	return true
}
