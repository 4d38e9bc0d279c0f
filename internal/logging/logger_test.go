package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	handler := &consoleHandler{writer: &buf, level: lvl}
	logger := slog.New(handler)

	logger = NewComponentLogger(logger, "trigger")
	logger.Info("decision emitted", String(FieldDecision, "turbo"), Int("symbol_count", 5))

	out := buf.String()
	if !strings.Contains(out, "[trigger]") {
		t.Errorf("expected component prefix, got %q", out)
	}
	if !strings.Contains(out, "decision=turbo") {
		t.Errorf("expected decision attr, got %q", out)
	}
	if !strings.Contains(out, "symbol_count=5") {
		t.Errorf("expected count attr, got %q", out)
	}
}

func TestConsoleHandlerLevelGate(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)
	logger := slog.New(&consoleHandler{writer: &buf, level: lvl})

	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("info record leaked through warn gate: %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("warn record missing: %q", buf.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(&consoleHandler{writer: &buf, level: lvl})

	WarnWithContext(logger, "vision call failed", "vision_call_failed")
	out := buf.String()
	for _, want := range []string{FieldEventType, FieldErrorHint, FieldImpact} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in output, got %q", want, out)
		}
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("must not panic", Error(nil))
}
