package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cardwatch/internal/config"
	"cardwatch/internal/detect"
	"cardwatch/internal/frames"
	"cardwatch/internal/logging"
	"cardwatch/internal/namedrift"
	"cardwatch/internal/notifications"
	"cardwatch/internal/reconcile"
	"cardwatch/internal/services"
	"cardwatch/internal/snapshot"
	"cardwatch/internal/stability"
	"cardwatch/internal/store"
	"cardwatch/internal/task"
	"cardwatch/internal/trigger"
	"cardwatch/internal/vision"
)

// Extractor is the slice of the vision client the orchestrator needs.
type Extractor interface {
	ExtractTasks(ctx context.Context, req vision.Request) ([]task.Task, error)
}

// Orchestrator owns the frame loop. It evaluates the trigger machine on
// every frame and dispatches the resulting actions to a single background
// worker so store and vision I/O never block frame consumption.
type Orchestrator struct {
	cfg       *config.Config
	store     *store.Store
	extractor Extractor
	engine    *reconcile.Engine
	patcher   *namedrift.Patcher
	notifier  notifications.Service
	cache     *snapshot.Cache
	filter    detect.Filter
	logger    *slog.Logger
	loc       *time.Location

	// Now is overridable for tests.
	Now func() time.Time

	machineMu sync.Mutex
	machine   *trigger.Machine

	jobs chan job

	mu           sync.Mutex
	running      bool
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	auto         bool
	lastFrame    *detect.Frame
	lastDecision trigger.Decision
	lastErr      error
}

// jobKind names the work a queued job carries. The first three mirror
// trigger decisions; jobExtract exists only for the manual OCR preview.
type jobKind int

const (
	jobInitialScan jobKind = iota
	jobFullScan
	jobTurbo
	jobExtract
)

func (k jobKind) String() string {
	switch k {
	case jobInitialScan:
		return "initial_scan"
	case jobFullScan:
		return "full_scan"
	case jobTurbo:
		return "turbo"
	case jobExtract:
		return "ocr_preview"
	default:
		return "none"
	}
}

type job struct {
	kind      jobKind
	frame     detect.Frame
	requestID string
	manual    bool
}

// New wires an orchestrator from its collaborators.
func New(cfg *config.Config, st *store.Store, extractor Extractor, notifier notifications.Service, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	loc := cfg.Location()
	filter := detect.Filter{
		ConfidenceThreshold: cfg.Detector.ConfidenceThreshold,
		AnnotationLabel:     detect.Class(cfg.Detector.AnnotationLabel),
	}
	cache := snapshot.NewCache()

	o := &Orchestrator{
		cfg:       cfg,
		store:     st,
		extractor: extractor,
		engine:    reconcile.NewEngine(st, logger, loc),
		patcher:   namedrift.NewPatcher(st, logger),
		notifier:  notifier,
		cache:     cache,
		filter:    filter,
		logger:    logging.NewComponentLogger(logger, "orchestrator"),
		loc:       loc,
		Now:       time.Now,
		auto:      true,
		jobs:      make(chan job, 4),
	}

	initial := stability.NewInitialScanDetector(stability.InitialScanConfig{
		HistorySize:          cfg.Stability.InitialHistorySize,
		MinHistory:           cfg.Stability.InitialMinHistory,
		RequiredStableFrames: cfg.Stability.InitialStableFrames,
		GrowthStallFrames:    cfg.Stability.GrowthStallFrames,
		MinSymbols:           cfg.Stability.MinSymbols,
		EdgeMarginPx:         cfg.Stability.EdgeMarginPx,
		CooldownFrames:       cfg.Stability.InitialScanCooldownFrames,
	}, filter)
	fullView := stability.NewFullViewDetector(stability.FullViewConfig{
		PositionThresholdPx:  cfg.Stability.PositionThresholdPx,
		RequiredStableFrames: cfg.Stability.FullViewStableFrames,
	}, filter)
	o.machine = trigger.NewMachine(trigger.Config{
		CountWindow:          cfg.Trigger.CountWindow,
		DebounceFrames:       cfg.Trigger.DebounceFrames,
		TurboCooldownFrames:  cfg.Trigger.TurboCooldownFrames,
		ScanCooldownFrames:   cfg.Trigger.ScanCooldownFrames,
		RescanCooldownFrames: cfg.Trigger.RescanCooldownFrames,
		AwaitTimeoutFrames:   cfg.Trigger.AwaitTimeoutFrames,
	}, initial, fullView, filter, func() bool {
		return cache.HasFor(task.DailyID(o.Now(), loc))
	})

	return o
}

// Cache exposes the snapshot cache for status reporting.
func (o *Orchestrator) Cache() *snapshot.Cache { return o.cache }

// Run consumes frames from the source until the context is cancelled or the
// source is exhausted. It blocks; callers run it in a goroutine.
func (o *Orchestrator) Run(ctx context.Context, source frames.Source) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return errors.New("orchestrator already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	o.running = true
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.cancel = nil
		o.mu.Unlock()
	}()

	ch, err := source.Start(runCtx)
	if err != nil {
		cancel()
		return err
	}

	o.wg.Add(1)
	go o.worker(runCtx)
	defer func() {
		cancel()
		o.wg.Wait()
	}()

	for {
		select {
		case <-runCtx.Done():
			return nil
		case frame, ok := <-ch:
			if !ok {
				return nil
			}
			o.handleFrame(frame)
		}
	}
}

// Stop cancels a running frame loop.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (o *Orchestrator) handleFrame(frame detect.Frame) {
	o.machineMu.Lock()
	decision := o.machine.Evaluate(frame)
	o.machineMu.Unlock()

	o.mu.Lock()
	copied := frame
	o.lastFrame = &copied
	o.lastDecision = decision
	auto := o.auto
	o.mu.Unlock()

	switch decision {
	case trigger.DecisionNone:
		return
	case trigger.DecisionAwaitFullView:
		o.logger.Debug("holding extraction for full page view",
			logging.String(logging.FieldDecision, decision.String()),
			logging.Int64(logging.FieldFrame, int64(frame.Sequence)),
		)
		return
	}

	if !auto {
		o.logger.Debug("auto mode off, skipping trigger",
			logging.String(logging.FieldDecision, decision.String()),
		)
		if decision == trigger.DecisionInitialScan {
			o.abortInitialScan()
		}
		return
	}
	kind := jobFullScan
	switch decision {
	case trigger.DecisionInitialScan:
		kind = jobInitialScan
	case trigger.DecisionTurbo:
		kind = jobTurbo
	}
	o.dispatch(job{kind: kind, frame: frame, requestID: uuid.NewString()})
}

func (o *Orchestrator) dispatch(j job) {
	select {
	case o.jobs <- j:
	default:
		o.logger.Warn("action queue full, dropping trigger",
			logging.String(logging.FieldDecision, j.kind.String()),
			logging.String(logging.FieldRequestID, j.requestID),
		)
		if j.kind == jobInitialScan {
			o.abortInitialScan()
		}
	}
}

func (o *Orchestrator) worker(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-o.jobs:
			o.process(ctx, j)
		}
	}
}

func (o *Orchestrator) process(ctx context.Context, j job) {
	logger := o.logger.With(
		logging.String(logging.FieldRequestID, j.requestID),
		logging.String(logging.FieldDecision, j.kind.String()),
	)
	dailyID := task.DailyID(o.Now(), o.loc)
	ctx = services.WithRequestID(ctx, j.requestID)
	ctx = services.WithAction(ctx, j.kind.String())
	ctx = services.WithDailyID(ctx, dailyID)

	switch j.kind {
	case jobInitialScan:
		o.runFullScan(ctx, logger, dailyID, j.frame, true)
	case jobFullScan:
		o.runFullScan(ctx, logger, dailyID, j.frame, false)
	case jobTurbo:
		o.runTurbo(ctx, logger, dailyID, j.frame)
	case jobExtract:
		o.runExtractPreview(ctx, logger, dailyID, j.frame)
	}
}

func (o *Orchestrator) abortInitialScan() {
	o.machineMu.Lock()
	o.machine.AbortInitialScan()
	o.machineMu.Unlock()
}

func (o *Orchestrator) markInitialScanComplete() {
	o.machineMu.Lock()
	o.machine.MarkInitialScanComplete()
	o.machineMu.Unlock()
}

func (o *Orchestrator) setLastError(err error) {
	o.mu.Lock()
	o.lastErr = err
	o.mu.Unlock()
}

// TriggerScan queues a manual full extraction using the most recent frame.
func (o *Orchestrator) TriggerScan() error {
	frame, err := o.latestFrame()
	if err != nil {
		return err
	}
	o.machineMu.Lock()
	o.machine.NoteManualScan()
	o.machineMu.Unlock()
	o.dispatch(job{kind: jobFullScan, frame: frame, requestID: uuid.NewString(), manual: true})
	return nil
}

// TriggerExtract queues a manual OCR preview of the most recent frame. The
// result is logged, never reconciled into the store, and the trigger
// cooldowns are left untouched.
func (o *Orchestrator) TriggerExtract() error {
	frame, err := o.latestFrame()
	if err != nil {
		return err
	}
	o.dispatch(job{kind: jobExtract, frame: frame, requestID: uuid.NewString(), manual: true})
	return nil
}

// TriggerTurbo queues a manual fast-path update using the most recent frame.
func (o *Orchestrator) TriggerTurbo() error {
	frame, err := o.latestFrame()
	if err != nil {
		return err
	}
	o.machineMu.Lock()
	o.machine.NoteManualTurbo()
	o.machineMu.Unlock()
	o.dispatch(job{kind: jobTurbo, frame: frame, requestID: uuid.NewString(), manual: true})
	return nil
}

// ToggleAuto flips automatic triggering and returns the new state.
func (o *Orchestrator) ToggleAuto() bool {
	o.mu.Lock()
	o.auto = !o.auto
	state := o.auto
	o.mu.Unlock()
	o.logger.Info("auto mode toggled", logging.Bool("auto", state))
	return state
}

// ResetLatch returns the trigger machine and both stability detectors to
// their startup state, allowing a fresh initial scan.
func (o *Orchestrator) ResetLatch() {
	o.machineMu.Lock()
	o.machine.Reset()
	o.machineMu.Unlock()
	o.cache.Invalidate()
	o.logger.Info("initial scan latch reset")
}

func (o *Orchestrator) latestFrame() (detect.Frame, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastFrame == nil {
		return detect.Frame{}, errors.New("no frame observed yet")
	}
	return *o.lastFrame, nil
}

// Status is a point-in-time view of the loop for the CLI.
type Status struct {
	Running       bool
	Auto          bool
	HasScanned    bool
	Baseline      int
	BaselineSet   bool
	TurboCooldown int
	ScanCooldown  int
	LastDecision  string
	LastError     string
	DailyID       string
	CachedTasks   int
	QueueDepth    int
}

// Snapshot returns the current loop status.
func (o *Orchestrator) Snapshot() Status {
	o.machineMu.Lock()
	hasScanned := o.machine.HasScannedOnce()
	baseline, baselineSet := o.machine.Baseline()
	turboCD, scanCD := o.machine.Cooldowns()
	o.machineMu.Unlock()

	o.mu.Lock()
	status := Status{
		Running:       o.running,
		Auto:          o.auto,
		HasScanned:    hasScanned,
		Baseline:      baseline,
		BaselineSet:   baselineSet,
		TurboCooldown: turboCD,
		ScanCooldown:  scanCD,
		LastDecision:  o.lastDecision.String(),
		DailyID:       task.DailyID(o.Now(), o.loc),
		QueueDepth:    len(o.jobs),
	}
	if o.lastErr != nil {
		status.LastError = o.lastErr.Error()
	}
	o.mu.Unlock()

	if entry, ok := o.cache.Get(); ok {
		status.CachedTasks = len(entry.Tasks)
	}
	return status
}
