package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cardwatch/internal/daemon"
	"cardwatch/internal/frames"
	"cardwatch/internal/ipc"
	"cardwatch/internal/logging"
	"cardwatch/internal/orchestrator"
	"cardwatch/internal/store"
	"cardwatch/internal/task"
	"cardwatch/internal/testsupport"
	"cardwatch/internal/vision"
)

type stubExtractor struct{}

func (stubExtractor) ExtractTasks(context.Context, vision.Request) ([]task.Task, error) {
	return nil, nil
}

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	orch := orchestrator.New(cfg, st, stubExtractor{}, nil, logger)
	source := frames.NewSpoolSource(cfg.Paths.SpoolDir, logger)
	d, err := daemon.New(cfg, st, logger, orch, source, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(cfg.Paths.LogDir, "cardwatch.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon not running before Start")
	}
	if !status.Loop.Auto {
		t.Fatal("expected auto mode on by default")
	}
	if !strings.HasSuffix(status.StoreDBPath, "cardwatch.db") {
		t.Fatalf("unexpected store path: %s", status.StoreDBPath)
	}

	scanResp, err := client.Scan()
	if err != nil {
		t.Fatalf("Scan RPC failed: %v", err)
	}
	if scanResp.Queued {
		t.Fatal("expected manual scan to be rejected before any frame")
	}

	extractResp, err := client.Extract()
	if err != nil {
		t.Fatalf("Extract RPC failed: %v", err)
	}
	if extractResp.Queued {
		t.Fatal("expected ocr preview to be rejected before any frame")
	}
	if extractResp.Message == "" {
		t.Fatal("expected rejection message for ocr preview")
	}

	autoResp, err := client.ToggleAuto()
	if err != nil {
		t.Fatalf("ToggleAuto RPC failed: %v", err)
	}
	if autoResp.Auto {
		t.Fatal("expected toggle to disable auto mode")
	}

	resetResp, err := client.ResetLatch()
	if err != nil {
		t.Fatalf("ResetLatch RPC failed: %v", err)
	}
	if !resetResp.Reset {
		t.Fatal("expected reset acknowledgement")
	}

	// Seed a task and a project directly, then read them back over RPC.
	seedTime := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	dailyID := "2026-03-05"
	seeded := task.Task{Name: "Write brief", Status: task.StatusInProgress, StartedAt: &seedTime, Order: 1}
	if err := st.PutTask(ctx, dailyID, task.EncodeKey("", seeded.Name), seeded); err != nil {
		t.Fatalf("PutTask: %v", err)
	}
	if err := st.UpsertDailyMeta(ctx, dailyID, map[string]any{"date": dailyID}); err != nil {
		t.Fatalf("UpsertDailyMeta: %v", err)
	}
	if err := st.UpsertProject(ctx, store.Project{Name: "website", Description: "marketing refresh"}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	tasksResp, err := client.Tasks(dailyID)
	if err != nil {
		t.Fatalf("Tasks RPC failed: %v", err)
	}
	if len(tasksResp.Tasks) != 1 || tasksResp.Tasks[0].Name != "Write brief" {
		t.Fatalf("unexpected tasks response: %+v", tasksResp.Tasks)
	}
	if tasksResp.Tasks[0].StartedAt == "" {
		t.Fatal("expected started timestamp in wire form")
	}

	dailiesResp, err := client.Dailies()
	if err != nil {
		t.Fatalf("Dailies RPC failed: %v", err)
	}
	if len(dailiesResp.DailyIDs) != 1 || dailiesResp.DailyIDs[0] != dailyID {
		t.Fatalf("unexpected dailies response: %+v", dailiesResp.DailyIDs)
	}

	projectsResp, err := client.Projects()
	if err != nil {
		t.Fatalf("Projects RPC failed: %v", err)
	}
	if len(projectsResp.Projects) != 1 || projectsResp.Projects[0].Name != "website" {
		t.Fatalf("unexpected projects response: %+v", projectsResp.Projects)
	}

	notifyResp, err := client.TestNotification()
	if err != nil {
		t.Fatalf("TestNotification failed: %v", err)
	}
	if notifyResp.Sent || notifyResp.Message == "" {
		t.Fatalf("expected unsent with explanation when no topic configured, got %#v", notifyResp)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected stop response to be true")
	}
}
