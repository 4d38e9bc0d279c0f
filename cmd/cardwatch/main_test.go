package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"cardwatch/internal/config"
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

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	daemon     *daemon.Daemon
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	orch := orchestrator.New(cfg, st, stubExtractor{}, nil, logger)
	source := frames.NewSpoolSource(cfg.Paths.SpoolDir, logger)
	d, err := daemon.New(cfg, st, logger, orch, source, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	time.Sleep(50 * time.Millisecond)

	return &cliTestEnv{
		cfg:        cfg,
		store:      st,
		daemon:     d,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLIStatusBeforeStart(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon")
	requireContains(t, out, "Not running")
	requireContains(t, out, "Watch Loop")
}

func TestCLITaskCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	dailyID := "2026-03-05"
	seeded := task.Task{Name: "Write brief", Status: task.StatusInProgress, StartedAt: &started, Order: 1}
	if err := env.store.PutTask(ctx, dailyID, task.EncodeKey("", seeded.Name), seeded); err != nil {
		t.Fatalf("PutTask: %v", err)
	}
	if err := env.store.UpsertDailyMeta(ctx, dailyID, map[string]any{"date": dailyID}); err != nil {
		t.Fatalf("UpsertDailyMeta: %v", err)
	}
	if err := env.store.UpsertProject(ctx, store.Project{Name: "website", Description: "marketing refresh"}); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}

	out, _, err := runCLI(t, []string{"tasks", dailyID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("tasks: %v", err)
	}
	requireContains(t, out, "Write brief")
	requireContains(t, out, "IN_PROGRESS")

	out, _, err = runCLI(t, []string{"dailies"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("dailies: %v", err)
	}
	requireContains(t, out, dailyID)

	out, _, err = runCLI(t, []string{"projects"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("projects: %v", err)
	}
	requireContains(t, out, "website")
	requireContains(t, out, "marketing refresh")
}

func TestCLIControlCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"scan"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "no frame observed yet")

	out, _, err = runCLI(t, []string{"ocr"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("ocr: %v", err)
	}
	requireContains(t, out, "no frame observed yet")

	out, _, err = runCLI(t, []string{"auto"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("auto: %v", err)
	}
	requireContains(t, out, "Automatic triggering disabled")

	out, _, err = runCLI(t, []string{"reset"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	requireContains(t, out, "Trigger state reset")
}

func TestCLITestNotifyWithoutTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "ntfy topic not configured")
}

func TestCLIConfigInit(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")

	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, stdout.String(), "Wrote sample configuration")

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample config: %v", err)
	}
	if !strings.Contains(string(data), "[vision]") {
		t.Fatalf("sample config missing vision section:\n%s", data)
	}
}
