package daemon_test

import (
	"context"
	"testing"
	"time"

	"cardwatch/internal/daemon"
	"cardwatch/internal/frames"
	"cardwatch/internal/logging"
	"cardwatch/internal/orchestrator"
	"cardwatch/internal/task"
	"cardwatch/internal/testsupport"
	"cardwatch/internal/vision"
)

type stubExtractor struct{}

func (stubExtractor) ExtractTasks(context.Context, vision.Request) ([]task.Task, error) {
	return nil, nil
}

func newTestDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	orch := orchestrator.New(cfg, st, stubExtractor{}, nil, logger)
	source := frames.NewSpoolSource(cfg.Paths.SpoolDir, logger)
	d, err := daemon.New(cfg, st, logger, orch, source, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newTestDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for !d.Status().Running {
		if time.Now().After(deadline) {
			t.Fatal("daemon never reported running")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}
	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon stopped")
	}
}

func TestDaemonSecondInstanceBlocked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	first, err := daemon.New(cfg, st, logger, orchestrator.New(cfg, st, stubExtractor{}, nil, logger), frames.NewSpoolSource(cfg.Paths.SpoolDir, logger), nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start returned error: %v", err)
	}
	defer first.Stop()

	second, err := daemon.New(cfg, st, logger, orchestrator.New(cfg, st, stubExtractor{}, nil, logger), frames.NewSpoolSource(cfg.Paths.SpoolDir, logger), nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("expected lock contention error")
	}
}

func TestDaemonStatusFields(t *testing.T) {
	d := newTestDaemon(t)
	status := d.Status()
	if status.Running {
		t.Fatal("expected not running before Start")
	}
	if status.StoreDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("expected paths populated, got %+v", status)
	}
	if !status.Loop.Auto {
		t.Fatal("expected auto mode on by default")
	}
}

func TestDaemonManualControlsWithoutFrames(t *testing.T) {
	d := newTestDaemon(t)
	if err := d.TriggerScan(); err == nil {
		t.Fatal("expected manual scan to fail before any frame")
	}
	if state := d.ToggleAuto(); state {
		t.Fatal("expected toggle to disable auto mode")
	}
	d.ResetLatch()
}
