package trigger

import (
	"cardwatch/internal/detect"
	"cardwatch/internal/stability"
)

// Decision is the action the machine emits for one frame.
type Decision int

const (
	// DecisionNone means no action this frame.
	DecisionNone Decision = iota
	// DecisionInitialScan requests the one-time first full extraction.
	DecisionInitialScan
	// DecisionTurbo requests a reorder-only update from the cached snapshot.
	DecisionTurbo
	// DecisionAwaitFullView means the machine is holding a full extraction
	// until the whole page is visible.
	DecisionAwaitFullView
	// DecisionFullScan requests a full extraction.
	DecisionFullScan
)

// String returns the decision label used in logs.
func (d Decision) String() string {
	switch d {
	case DecisionInitialScan:
		return "initial_scan"
	case DecisionTurbo:
		return "turbo"
	case DecisionAwaitFullView:
		return "await_full_view"
	case DecisionFullScan:
		return "full_scan"
	default:
		return "none"
	}
}

// Config tunes the machine's debounce and cooldown behavior. All values are
// frame counts.
type Config struct {
	CountWindow          int
	DebounceFrames       int
	TurboCooldownFrames  int
	ScanCooldownFrames   int
	RescanCooldownFrames int
	AwaitTimeoutFrames   int
}

// Machine emits one Decision per frame from the actionable symbol count, the
// stability detectors, and a set of cooldown counters. Count decreases are
// taken as real page turns and extract immediately; increases wait for the
// full page to come into view; unchanged counts take the cheap snapshot
// path. It is not safe for concurrent use.
type Machine struct {
	cfg         Config
	filter      detect.Filter
	initial     *stability.InitialScanDetector
	fullView    *stability.FullViewDetector
	hasSnapshot func() bool

	counts      []int
	baseline    int
	baselineSet bool

	awaitingFullView bool
	awaitFrames      int
	turboCooldown    int
	scanCooldown     int
}

// NewMachine constructs a machine. hasSnapshot reports whether a cached
// extraction exists for the current day; the fast path is only offered when
// it returns true.
func NewMachine(cfg Config, initial *stability.InitialScanDetector, fullView *stability.FullViewDetector, filter detect.Filter, hasSnapshot func() bool) *Machine {
	if cfg.CountWindow <= 0 {
		cfg.CountWindow = 15
	}
	if hasSnapshot == nil {
		hasSnapshot = func() bool { return false }
	}
	return &Machine{
		cfg:         cfg,
		filter:      filter,
		initial:     initial,
		fullView:    fullView,
		hasSnapshot: hasSnapshot,
	}
}

// Evaluate consumes one frame and returns the decision for it.
func (m *Machine) Evaluate(frame detect.Frame) Decision {
	// Until the first full extraction lands, only the initial-scan detector
	// may fire. While its positive result is pending nothing else runs.
	if !m.initial.HasScanned() {
		if m.initial.Awaiting() {
			return DecisionNone
		}
		if m.initial.Observe(frame) {
			return DecisionInitialScan
		}
		return DecisionNone
	}

	if m.turboCooldown > 0 {
		m.turboCooldown--
	}
	if m.scanCooldown > 0 {
		m.scanCooldown--
	}

	count := len(m.filter.Actionable(frame.Detections))
	m.counts = append(m.counts, count)
	if len(m.counts) > m.cfg.CountWindow {
		m.counts = m.counts[len(m.counts)-m.cfg.CountWindow:]
	}
	if !m.countDebounced() {
		return DecisionNone
	}

	if !m.baselineSet {
		m.baseline = count
		m.baselineSet = true
		return DecisionNone
	}

	if m.awaitingFullView {
		m.awaitFrames++
		ready := m.fullView.Observe(frame)
		if ready || m.awaitFrames > m.cfg.AwaitTimeoutFrames {
			m.awaitingFullView = false
			m.baseline = count
			return DecisionFullScan
		}
		return DecisionAwaitFullView
	}

	switch {
	case count == m.baseline && count > 0 && m.turboCooldown == 0 && m.hasSnapshot():
		m.turboCooldown = m.cfg.TurboCooldownFrames
		return DecisionTurbo
	case count > m.baseline:
		m.awaitingFullView = true
		m.awaitFrames = 0
		m.fullView.Reset()
		m.scanCooldown = m.cfg.ScanCooldownFrames
		return DecisionAwaitFullView
	case count < m.baseline && count > 0 && m.scanCooldown == 0:
		m.baseline = count
		m.scanCooldown = m.cfg.RescanCooldownFrames
		return DecisionFullScan
	default:
		return DecisionNone
	}
}

// countDebounced reports whether the trailing DebounceFrames counts are all
// identical.
func (m *Machine) countDebounced() bool {
	n := m.cfg.DebounceFrames
	if n <= 1 {
		return true
	}
	if len(m.counts) < n {
		return false
	}
	tail := m.counts[len(m.counts)-n:]
	for _, c := range tail[1:] {
		if c != tail[0] {
			return false
		}
	}
	return true
}

// MarkInitialScanComplete latches the one-shot initial scan after its
// extraction lands.
func (m *Machine) MarkInitialScanComplete() {
	m.initial.MarkScanComplete()
}

// AbortInitialScan clears a pending initial scan after a failed extraction
// so the page can be re-evaluated.
func (m *Machine) AbortInitialScan() {
	m.initial.AbortScan()
}

// HasScannedOnce reports whether the initial scan has completed.
func (m *Machine) HasScannedOnce() bool {
	return m.initial.HasScanned()
}

// AwaitingFullView reports whether the machine is holding an extraction for
// full page visibility.
func (m *Machine) AwaitingFullView() bool {
	return m.awaitingFullView
}

// Baseline returns the current baseline count and whether it has been set.
func (m *Machine) Baseline() (int, bool) {
	return m.baseline, m.baselineSet
}

// Cooldowns returns the remaining turbo and scan cooldown frames.
func (m *Machine) Cooldowns() (turbo, scan int) {
	return m.turboCooldown, m.scanCooldown
}

// NoteManualTurbo starts the turbo cooldown after a user-triggered fast
// path, so the next automatic trigger does not immediately duplicate it.
func (m *Machine) NoteManualTurbo() {
	m.turboCooldown = m.cfg.TurboCooldownFrames
}

// NoteManualScan starts the scan cooldown after a user-triggered full
// extraction.
func (m *Machine) NoteManualScan() {
	m.scanCooldown = m.cfg.RescanCooldownFrames
}

// Reset returns the machine and both detectors to their startup state. Used
// by the manual latch-reset control.
func (m *Machine) Reset() {
	m.initial.Reset()
	m.fullView.Reset()
	m.counts = m.counts[:0]
	m.baseline = 0
	m.baselineSet = false
	m.awaitingFullView = false
	m.awaitFrames = 0
	m.turboCooldown = 0
	m.scanCooldown = 0
}
