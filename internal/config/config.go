package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	SpoolDir string `toml:"spool_dir"`
}

// Detector contains settings applied to raw symbol detections before any
// stability or ordering computation.
type Detector struct {
	// ConfidenceThreshold excludes detections at or below this value.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	// AnnotationLabel is the non-actionable label always filtered out.
	AnnotationLabel string `toml:"annotation_label"`
}

// Stability tunes the full-view and initial-scan readiness detectors.
type Stability struct {
	// PositionThresholdPx is the maximum per-symbol drift between two
	// consecutive frames for the view to count as stable.
	PositionThresholdPx float64 `toml:"position_threshold_px"`
	// FullViewStableFrames is the consecutive stable run required before
	// full-page-view readiness reports true.
	FullViewStableFrames int `toml:"full_view_stable_frames"`
	// InitialHistorySize bounds the symbol-count history window.
	InitialHistorySize int `toml:"initial_history_size"`
	// InitialMinHistory is the minimum history length before the initial-scan
	// detector makes any decision.
	InitialMinHistory int `toml:"initial_min_history"`
	// InitialStableFrames is the count-stable run required for initial scan.
	InitialStableFrames int `toml:"initial_stable_frames"`
	// GrowthStallFrames is how long the max symbol count must stop growing.
	GrowthStallFrames int `toml:"growth_stall_frames"`
	// MinSymbols is the minimum symbol count for a valid page.
	MinSymbols int `toml:"min_symbols"`
	// EdgeMarginPx rejects views where most symbols hug a frame edge.
	EdgeMarginPx float64 `toml:"edge_margin_px"`
	// InitialScanCooldownFrames suppresses re-evaluation after a positive.
	InitialScanCooldownFrames int `toml:"initial_scan_cooldown_frames"`
}

// Trigger tunes the per-frame decision state machine.
type Trigger struct {
	// CountWindow bounds the symbol-count stability window.
	CountWindow int `toml:"count_window"`
	// DebounceFrames is the run of identical counts required before any
	// decision is considered.
	DebounceFrames int `toml:"debounce_frames"`
	// TurboCooldownFrames spaces out fast-path reconciliations.
	TurboCooldownFrames int `toml:"turbo_cooldown_frames"`
	// ScanCooldownFrames spaces out full extractions after a count increase.
	ScanCooldownFrames int `toml:"scan_cooldown_frames"`
	// RescanCooldownFrames spaces out full extractions after a count decrease.
	RescanCooldownFrames int `toml:"rescan_cooldown_frames"`
	// AwaitTimeoutFrames is the hard cap on waiting for a full page view.
	AwaitTimeoutFrames int `toml:"await_timeout_frames"`
}

// Vision contains settings for the vision-AI extraction service.
type Vision struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// Daily controls how calendar-day record identifiers are derived.
type Daily struct {
	// Timezone names the location used for daily IDs and timestamps,
	// e.g. "Asia/Bangkok". "Local" uses the host timezone.
	Timezone string `toml:"timezone"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Scans          bool   `toml:"scans"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for cardwatch.
//
// Configuration sections by subsystem:
//   - Paths: state, log, and detection spool directories
//   - Detector: confidence filtering of raw detections
//   - Stability: full-view and initial-scan readiness tuning
//   - Trigger: decision debounce, cooldowns, and await timeout
//   - Vision: vision-AI extraction service connection
//   - Daily: calendar-day identity and timezone
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Detector      Detector      `toml:"detector"`
	Stability     Stability     `toml:"stability"`
	Trigger       Trigger       `toml:"trigger"`
	Vision        Vision        `toml:"vision"`
	Daily         Daily         `toml:"daily"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cardwatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cardwatch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation. The
// spool dir is created best-effort so the daemon can start before the
// detector collaborator has ever run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.SpoolDir) != "" {
		_ = os.MkdirAll(c.Paths.SpoolDir, 0o755)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
