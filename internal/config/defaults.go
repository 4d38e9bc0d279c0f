package config

const (
	defaultStateDir = "~/.local/share/cardwatch/state"
	defaultLogDir   = "~/.local/share/cardwatch/logs"
	defaultSpoolDir = "~/.local/share/cardwatch/spool"

	defaultConfidenceThreshold = 0.3
	defaultAnnotationLabel     = "TEXT_AREA"

	defaultPositionThresholdPx  = 30.0
	defaultFullViewStableFrames = 15
	defaultInitialHistorySize   = 25
	defaultInitialMinHistory    = 10
	defaultInitialStableFrames  = 20
	defaultGrowthStallFrames    = 15
	defaultMinSymbols           = 3
	defaultEdgeMarginPx         = 50.0
	defaultInitialScanCooldown  = 180

	defaultCountWindow          = 15
	defaultDebounceFrames       = 10
	defaultTurboCooldownFrames  = 60
	defaultScanCooldownFrames   = 120
	defaultRescanCooldownFrames = 90
	defaultAwaitTimeoutFrames   = 300

	defaultVisionBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultVisionModel          = "gemini-2.5-flash-lite"
	defaultVisionTimeoutSeconds = 60
	defaultVisionRetryAttempts  = 3

	defaultTimezone = "Local"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			SpoolDir: defaultSpoolDir,
		},
		Detector: Detector{
			ConfidenceThreshold: defaultConfidenceThreshold,
			AnnotationLabel:     defaultAnnotationLabel,
		},
		Stability: Stability{
			PositionThresholdPx:       defaultPositionThresholdPx,
			FullViewStableFrames:      defaultFullViewStableFrames,
			InitialHistorySize:        defaultInitialHistorySize,
			InitialMinHistory:         defaultInitialMinHistory,
			InitialStableFrames:       defaultInitialStableFrames,
			GrowthStallFrames:         defaultGrowthStallFrames,
			MinSymbols:                defaultMinSymbols,
			EdgeMarginPx:              defaultEdgeMarginPx,
			InitialScanCooldownFrames: defaultInitialScanCooldown,
		},
		Trigger: Trigger{
			CountWindow:          defaultCountWindow,
			DebounceFrames:       defaultDebounceFrames,
			TurboCooldownFrames:  defaultTurboCooldownFrames,
			ScanCooldownFrames:   defaultScanCooldownFrames,
			RescanCooldownFrames: defaultRescanCooldownFrames,
			AwaitTimeoutFrames:   defaultAwaitTimeoutFrames,
		},
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			Model:          defaultVisionModel,
			TimeoutSeconds: defaultVisionTimeoutSeconds,
			RetryAttempts:  defaultVisionRetryAttempts,
		},
		Daily: Daily{
			Timezone: defaultTimezone,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Scans:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
