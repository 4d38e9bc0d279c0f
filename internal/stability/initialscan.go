package stability

import (
	"cardwatch/internal/detect"
)

// InitialScanConfig tunes the one-shot initial-scan readiness detector.
type InitialScanConfig struct {
	// HistorySize bounds the symbol-count history window.
	HistorySize int
	// MinHistory is the minimum observations before any decision.
	MinHistory int
	// RequiredStableFrames is the count-stable run needed for readiness.
	RequiredStableFrames int
	// GrowthStallFrames is how long the maximum count must stop growing.
	GrowthStallFrames int
	// MinSymbols is the minimum count for a valid page.
	MinSymbols int
	// EdgeMarginPx defines the border region for the distribution check.
	EdgeMarginPx float64
	// CooldownFrames suppresses re-evaluation after a positive result.
	CooldownFrames int
}

// InitialScanDetector decides when a page has come into full view for the
// first time. It is one-shot: once the caller marks the scan complete the
// detector never fires again for the process lifetime.
type InitialScanDetector struct {
	cfg    InitialScanConfig
	filter detect.Filter

	scanned      bool
	awaiting     bool
	cooldown     int
	countHistory []int
	maxCount     int
	stableRun    int
	growthStall  int
}

// NewInitialScanDetector constructs a detector with the supplied tuning.
func NewInitialScanDetector(cfg InitialScanConfig, filter detect.Filter) *InitialScanDetector {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 25
	}
	return &InitialScanDetector{cfg: cfg, filter: filter}
}

// Observe feeds one frame and reports whether the page is ready for its
// first full extraction. Readiness requires: minimum history, minimum symbol
// count, a count-stable run (at most two distinct recent values), a stalled
// maximum count, and a spatial distribution that is not pinned to the frame
// edges. On success the detector enters the awaiting state and starts a
// cooldown; the caller confirms with MarkScanComplete when the extraction
// lands.
func (d *InitialScanDetector) Observe(frame detect.Frame) bool {
	if d.scanned {
		return false
	}
	if d.cooldown > 0 {
		d.cooldown--
		return false
	}

	actionable := d.filter.Actionable(frame.Detections)
	count := len(actionable)

	d.countHistory = append(d.countHistory, count)
	if len(d.countHistory) > d.cfg.HistorySize {
		d.countHistory = d.countHistory[len(d.countHistory)-d.cfg.HistorySize:]
	}

	if count > d.maxCount {
		d.maxCount = count
		d.growthStall = 0
	} else {
		d.growthStall++
	}

	if len(d.countHistory) < d.cfg.MinHistory {
		return false
	}
	if count < d.cfg.MinSymbols {
		d.stableRun = 0
		return false
	}

	if countStable(d.recentCounts()) {
		d.stableRun++
	} else {
		d.stableRun = 0
	}

	ready := d.stableRun >= d.cfg.RequiredStableFrames &&
		d.growthStall >= d.cfg.GrowthStallFrames &&
		d.wellDistributed(actionable, frame.Width, frame.Height)

	if ready {
		d.awaiting = true
		d.cooldown = d.cfg.CooldownFrames
	}
	return ready
}

// Awaiting reports whether a positive result is pending completion. While
// true, no other trigger decision may fire.
func (d *InitialScanDetector) Awaiting() bool {
	return d.awaiting && !d.scanned
}

// HasScanned reports whether the one-shot latch is set.
func (d *InitialScanDetector) HasScanned() bool {
	return d.scanned
}

// MarkScanComplete latches the detector after the initial extraction lands.
func (d *InitialScanDetector) MarkScanComplete() {
	d.scanned = true
	d.awaiting = false
}

// AbortScan clears the awaiting state without latching, used when the
// initial extraction fails and the page should be re-evaluated.
func (d *InitialScanDetector) AbortScan() {
	d.awaiting = false
}

// Reset returns the detector to its startup state so a new first scan can
// run, used by the manual latch-reset control.
func (d *InitialScanDetector) Reset() {
	d.scanned = false
	d.awaiting = false
	d.cooldown = 0
	d.countHistory = d.countHistory[:0]
	d.maxCount = 0
	d.stableRun = 0
	d.growthStall = 0
}

// StableRun exposes the current count-stable run for status rendering.
func (d *InitialScanDetector) StableRun() int {
	return d.stableRun
}

func (d *InitialScanDetector) recentCounts() []int {
	window := d.cfg.MinHistory
	if window <= 0 || window > len(d.countHistory) {
		window = len(d.countHistory)
	}
	return d.countHistory[len(d.countHistory)-window:]
}

// countStable allows small flicker: at most two distinct values in the
// recent window.
func countStable(counts []int) bool {
	distinct := make(map[int]struct{}, 3)
	for _, c := range counts {
		distinct[c] = struct{}{}
		if len(distinct) > 2 {
			return false
		}
	}
	return true
}

// wellDistributed rejects views where more than 80% of symbols lie within
// the edge margin of any frame border, which indicates a partially visible
// page.
func (d *InitialScanDetector) wellDistributed(dets []detect.Detection, width, height float64) bool {
	if len(dets) == 0 || width <= 0 || height <= 0 {
		return true
	}
	margin := d.cfg.EdgeMarginPx
	edge := 0
	for _, det := range dets {
		x := det.Box.CenterX()
		y := det.Box.CenterY()
		if x < margin || x > width-margin || y < margin || y > height-margin {
			edge++
		}
	}
	return float64(edge)/float64(len(dets)) <= 0.8
}
