package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateStability(); err != nil {
		return err
	}
	if err := c.validateTrigger(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	if err := c.validateDaily(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDetector() error {
	if c.Detector.ConfidenceThreshold < 0 || c.Detector.ConfidenceThreshold > 1 {
		return errors.New("detector.confidence_threshold must be between 0 and 1")
	}
	if strings.TrimSpace(c.Detector.AnnotationLabel) == "" {
		return errors.New("detector.annotation_label must be set")
	}
	return nil
}

func (c *Config) validateStability() error {
	if c.Stability.PositionThresholdPx <= 0 {
		return errors.New("stability.position_threshold_px must be positive")
	}
	if c.Stability.FullViewStableFrames <= 0 {
		return errors.New("stability.full_view_stable_frames must be positive")
	}
	if c.Stability.InitialMinHistory > c.Stability.InitialHistorySize {
		return errors.New("stability.initial_min_history cannot exceed stability.initial_history_size")
	}
	for name, v := range map[string]int{
		"stability.initial_history_size":  c.Stability.InitialHistorySize,
		"stability.initial_min_history":   c.Stability.InitialMinHistory,
		"stability.initial_stable_frames": c.Stability.InitialStableFrames,
		"stability.growth_stall_frames":   c.Stability.GrowthStallFrames,
		"stability.min_symbols":           c.Stability.MinSymbols,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Stability.EdgeMarginPx < 0 {
		return errors.New("stability.edge_margin_px cannot be negative")
	}
	return nil
}

func (c *Config) validateTrigger() error {
	if c.Trigger.DebounceFrames > c.Trigger.CountWindow {
		return errors.New("trigger.debounce_frames cannot exceed trigger.count_window")
	}
	for name, v := range map[string]int{
		"trigger.count_window":         c.Trigger.CountWindow,
		"trigger.debounce_frames":      c.Trigger.DebounceFrames,
		"trigger.await_timeout_frames": c.Trigger.AwaitTimeoutFrames,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	for name, v := range map[string]int{
		"trigger.turbo_cooldown_frames":  c.Trigger.TurboCooldownFrames,
		"trigger.scan_cooldown_frames":   c.Trigger.ScanCooldownFrames,
		"trigger.rescan_cooldown_frames": c.Trigger.RescanCooldownFrames,
	} {
		if v < 0 {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	return nil
}

func (c *Config) validateVision() error {
	if c.Vision.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/cardwatch/config.toml"
		}
		return fmt.Errorf("vision.api_key is required. Set CARDWATCH_VISION_API_KEY env var or edit %s (create with 'cardwatch config init')", defaultPath)
	}
	if strings.TrimSpace(c.Vision.Model) == "" {
		return errors.New("vision.model must be set")
	}
	if c.Vision.TimeoutSeconds <= 0 {
		return errors.New("vision.timeout_seconds must be positive")
	}
	if c.Vision.RetryAttempts <= 0 {
		return errors.New("vision.retry_attempts must be positive")
	}
	return nil
}

func (c *Config) validateDaily() error {
	tz := strings.TrimSpace(c.Daily.Timezone)
	if tz == "" {
		return errors.New("daily.timezone must be set")
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("daily.timezone: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

// Location resolves the configured daily timezone. Validate must have
// succeeded before calling.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Daily.Timezone))
	if err != nil {
		return time.Local
	}
	return loc
}
