package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"cardwatch/internal/config"
	"cardwatch/internal/frames"
	"cardwatch/internal/logging"
	"cardwatch/internal/notifications"
	"cardwatch/internal/orchestrator"
	"cardwatch/internal/store"
	"cardwatch/internal/task"
)

// Daemon coordinates the frame loop and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	orch     *orchestrator.Orchestrator
	source   frames.Source
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Loop         orchestrator.Status
	StoreDBPath  string
	LockFilePath string
	PID          int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, orch *orchestrator.Orchestrator, source frames.Source, notifier notifications.Service) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil || orch == nil || source == nil {
		return nil, errors.New("daemon requires config, store, logger, orchestrator, and frame source")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "cardwatchd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		orch:     orch,
		source:   source,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the frame loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cardwatch daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.orch.Run(runCtx, d.source); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("frame loop exited",
				logging.Error(err),
				logging.String(logging.FieldEventType, "frame_loop_exited"),
			)
		}
		d.running.Store(false)
	}()

	d.logger.Info("cardwatch daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop cancels the frame loop and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() && d.cancel == nil {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.source.Close(); err != nil {
		d.logger.Warn("failed to close frame source", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("cardwatch daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports current runtime state.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		Loop:         d.orch.Snapshot(),
		StoreDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		PID:          os.Getpid(),
	}
}

// TriggerScan queues a manual full extraction.
func (d *Daemon) TriggerScan() error { return d.orch.TriggerScan() }

// TriggerTurbo queues a manual fast-path update.
func (d *Daemon) TriggerTurbo() error { return d.orch.TriggerTurbo() }

// TriggerExtract queues a manual OCR preview that reports without writing.
func (d *Daemon) TriggerExtract() error { return d.orch.TriggerExtract() }

// ToggleAuto flips automatic triggering and returns the new state.
func (d *Daemon) ToggleAuto() bool { return d.orch.ToggleAuto() }

// ResetLatch allows a fresh initial scan.
func (d *Daemon) ResetLatch() { d.orch.ResetLatch() }

// Tasks returns the stored task tree for a daily record.
func (d *Daemon) Tasks(ctx context.Context, dailyID string) ([]task.Task, error) {
	if strings.TrimSpace(dailyID) == "" {
		dailyID = d.orch.Snapshot().DailyID
	}
	return d.store.Tasks(ctx, dailyID)
}

// Dailies lists known daily record IDs, newest first.
func (d *Daemon) Dailies(ctx context.Context) ([]string, error) {
	return d.store.DailyIDs(ctx)
}

// Projects lists the project catalog.
func (d *Daemon) Projects(ctx context.Context) ([]store.Project, error) {
	return d.store.Projects(ctx)
}

// TestNotification sends a test push via the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "notification sent", nil
}
