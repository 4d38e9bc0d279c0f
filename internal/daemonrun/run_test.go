package daemonrun

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"cardwatch/internal/testsupport"
)

func TestSocketPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	expected := filepath.Join(cfg.Paths.LogDir, "cardwatch.sock")
	if got := SocketPath(cfg); got != expected {
		t.Fatalf("expected socket path %q, got %q", expected, got)
	}

	if got := SocketPath(nil); !strings.HasSuffix(got, "cardwatch.sock") {
		t.Fatalf("expected fallback socket path, got %q", got)
	}
}

func TestWritePIDFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardwatch.pid")
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("parse pid: %v", err)
	}
	if pid != os.Getpid() {
		t.Fatalf("expected pid %d, got %d", os.Getpid(), pid)
	}
}

func TestEnsureCurrentLogPointer(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "cardwatch-run.log")
	if err := os.WriteFile(target, []byte("log line\n"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}

	if err := ensureCurrentLogPointer(dir, target); err != nil {
		t.Fatalf("ensureCurrentLogPointer: %v", err)
	}
	current := filepath.Join(dir, "cardwatch.log")
	data, err := os.ReadFile(current)
	if err != nil {
		t.Fatalf("read pointer: %v", err)
	}
	if string(data) != "log line\n" {
		t.Fatalf("pointer content mismatch: %q", data)
	}

	// Repointing replaces the existing link.
	if err := ensureCurrentLogPointer(dir, target); err != nil {
		t.Fatalf("repoint: %v", err)
	}
}
