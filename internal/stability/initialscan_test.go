package stability

import (
	"testing"

	"cardwatch/internal/detect"
)

func initialConfig() InitialScanConfig {
	return InitialScanConfig{
		HistorySize:          25,
		MinHistory:           5,
		RequiredStableFrames: 3,
		GrowthStallFrames:    3,
		MinSymbols:           3,
		EdgeMarginPx:         50,
		CooldownFrames:       10,
	}
}

func centeredPage(seq uint64) detect.Frame {
	return frameWith(seq,
		symbolAt(detect.ClassCompleted, 360, 300),
		symbolAt(detect.ClassInProgress, 360, 500),
		symbolAt(detect.ClassNotStarted, 360, 700),
	)
}

func driveToReady(t *testing.T, d *InitialScanDetector) {
	t.Helper()
	for i := 0; i < 50; i++ {
		if d.Observe(centeredPage(uint64(i))) {
			return
		}
	}
	t.Fatal("detector never became ready")
}

func TestInitialScanBecomesReady(t *testing.T) {
	d := NewInitialScanDetector(initialConfig(), testFilter())
	driveToReady(t, d)
	if !d.Awaiting() {
		t.Fatal("positive result should set awaiting")
	}
}

func TestInitialScanRequiresMinHistory(t *testing.T) {
	d := NewInitialScanDetector(initialConfig(), testFilter())
	for i := 0; i < 4; i++ {
		if d.Observe(centeredPage(uint64(i))) {
			t.Fatalf("ready before min history at frame %d", i)
		}
	}
}

func TestInitialScanRequiresMinSymbols(t *testing.T) {
	d := NewInitialScanDetector(initialConfig(), testFilter())
	sparse := frameWith(0, symbolAt(detect.ClassCompleted, 360, 500))
	for i := 0; i < 50; i++ {
		if d.Observe(sparse) {
			t.Fatal("one symbol should never be enough")
		}
	}
}

func TestInitialScanRejectsEdgeClusteredView(t *testing.T) {
	d := NewInitialScanDetector(initialConfig(), testFilter())
	// All symbols within the 50px edge margin.
	partial := frameWith(0,
		symbolAt(detect.ClassCompleted, 20, 300),
		symbolAt(detect.ClassInProgress, 20, 500),
		symbolAt(detect.ClassNotStarted, 20, 700),
	)
	for i := 0; i < 50; i++ {
		if d.Observe(partial) {
			t.Fatal("edge-clustered symbols should read as a partial view")
		}
	}
}

func TestInitialScanNeverFiresTwice(t *testing.T) {
	d := NewInitialScanDetector(initialConfig(), testFilter())
	driveToReady(t, d)
	d.MarkScanComplete()
	if !d.HasScanned() {
		t.Fatal("latch not set")
	}
	for i := 0; i < 100; i++ {
		if d.Observe(centeredPage(uint64(i))) {
			t.Fatal("latched detector fired a second time")
		}
	}
}

func TestInitialScanCooldownAfterPositive(t *testing.T) {
	cfg := initialConfig()
	cfg.CooldownFrames = 20
	d := NewInitialScanDetector(cfg, testFilter())
	driveToReady(t, d)
	d.AbortScan()
	// Within the cooldown the detector must stay quiet even though the page
	// is still perfectly stable.
	for i := 0; i < cfg.CooldownFrames; i++ {
		if d.Observe(centeredPage(uint64(i))) {
			t.Fatalf("fired during cooldown at frame %d", i)
		}
	}
}

func TestInitialScanResetAllowsNewScan(t *testing.T) {
	d := NewInitialScanDetector(initialConfig(), testFilter())
	driveToReady(t, d)
	d.MarkScanComplete()
	d.Reset()
	if d.HasScanned() || d.Awaiting() {
		t.Fatal("reset should clear latch and awaiting")
	}
	driveToReady(t, d)
}

func TestInitialScanGrowthResetsStall(t *testing.T) {
	d := NewInitialScanDetector(initialConfig(), testFilter())
	// Keep adding symbols so the max count keeps growing; the detector must
	// not fire while growth continues.
	for i := 0; i < 10; i++ {
		dets := make([]detect.Detection, 0, i+1)
		for j := 0; j <= i; j++ {
			dets = append(dets, symbolAt(detect.ClassNotStarted, 360, float64(100+100*j)))
		}
		if d.Observe(frameWith(uint64(i), dets...)) {
			t.Fatalf("fired while symbol count still growing at frame %d", i)
		}
	}
}
