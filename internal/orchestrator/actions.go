package orchestrator

import (
	"context"
	"log/slog"

	"cardwatch/internal/detect"
	"cardwatch/internal/logging"
	"cardwatch/internal/namedrift"
	"cardwatch/internal/services"
	"cardwatch/internal/snapshot"
	"cardwatch/internal/task"
	"cardwatch/internal/vision"
)

func (o *Orchestrator) runFullScan(ctx context.Context, logger *slog.Logger, dailyID string, frame detect.Frame, initial bool) {
	// A slow-path extraction supersedes whatever snapshot is cached. Drop it
	// up front so a later fast path cannot reuse a stale page if this scan
	// fails partway.
	o.cache.Invalidate()

	projects, err := o.store.Projects(ctx)
	if err != nil {
		logger.Warn("failed to load project catalog, extracting without it",
			logging.Error(err),
			logging.String(logging.FieldDailyID, dailyID),
		)
		projects = nil
	}

	now := o.Now()
	extracted, err := o.extractor.ExtractTasks(ctx, vision.Request{
		ImagePath: frame.ImagePath,
		Projects:  projects,
		Day:       now,
		Location:  o.loc,
	})
	if err != nil {
		o.failAction(ctx, logger, dailyID, "full extraction", err)
		if initial {
			o.abortInitialScan()
		}
		return
	}

	merged, err := o.engine.Merge(ctx, dailyID, extracted)
	if err != nil {
		o.failAction(ctx, logger, dailyID, "reconcile", err)
		if initial {
			o.abortInitialScan()
		}
		return
	}

	o.cache.Set(snapshot.Entry{
		DailyID:    dailyID,
		Tasks:      merged,
		Order:      orderFromTasks(merged),
		CapturedAt: now,
	})
	o.setLastError(nil)

	if initial {
		o.markInitialScanComplete()
		logger.Info("initial scan complete",
			logging.String(logging.FieldDailyID, dailyID),
			logging.Int("tasks", len(merged)),
		)
		if err := o.notifier.NotifyInitialScan(ctx, dailyID, len(merged)); err != nil {
			logger.Warn("initial scan notification failed", logging.Error(err))
		}
		return
	}

	logger.Info("full scan complete",
		logging.String(logging.FieldDailyID, dailyID),
		logging.Int("tasks", len(merged)),
	)
	if err := o.notifier.NotifyScanComplete(ctx, dailyID, len(merged)); err != nil {
		logger.Warn("scan notification failed", logging.Error(err))
	}
}

func (o *Orchestrator) runTurbo(ctx context.Context, logger *slog.Logger, dailyID string, frame detect.Frame) {
	entry, ok := o.cache.Get()
	if !ok || entry.DailyID != dailyID {
		logger.Info("no snapshot for today, falling back to full extraction",
			logging.String(logging.FieldDailyID, dailyID),
		)
		o.runFullScan(ctx, logger, dailyID, frame, false)
		return
	}

	order := o.filter.OrderTopToBottom(frame.Detections)
	if len(order) != len(entry.Order) {
		logger.Info("symbol count diverged from snapshot, falling back to full extraction",
			logging.Int("snapshot", len(entry.Order)),
			logging.Int("observed", len(order)),
		)
		o.runFullScan(ctx, logger, dailyID, frame, false)
		return
	}

	now := o.Now()
	changed := countOrderChanges(entry.Order, order)
	merged, err := o.engine.ApplyOrder(ctx, dailyID, entry.Tasks, order)
	if err != nil {
		o.failAction(ctx, logger, dailyID, "fast update", err)
		return
	}
	o.cache.Set(snapshot.Entry{
		DailyID:    dailyID,
		Tasks:      merged,
		Order:      append([]detect.Class(nil), order...),
		CapturedAt: now,
	})
	o.setLastError(nil)
	logger.Info("fast update applied",
		logging.String(logging.FieldDailyID, dailyID),
		logging.Int("changed", changed),
	)
	if changed > 0 {
		if err := o.notifier.NotifyReorderApplied(ctx, dailyID, changed); err != nil {
			logger.Warn("fast update notification failed", logging.Error(err))
		}
	}

	o.detectNameDrift(ctx, logger, dailyID, frame, merged)
}

// detectNameDrift runs a cheaper names-only extraction and applies narrow
// patches for wording changes. Extraction failure here degrades to the
// status-only update that already landed.
func (o *Orchestrator) detectNameDrift(ctx context.Context, logger *slog.Logger, dailyID string, frame detect.Frame, current []task.Task) {
	extracted, err := o.extractor.ExtractTasks(ctx, vision.Request{
		ImagePath: frame.ImagePath,
		Turbo:     true,
		Day:       o.Now(),
		Location:  o.loc,
	})
	if err != nil {
		logger.Warn("drift extraction failed, keeping status-only update",
			logging.Error(err),
			logging.String(logging.FieldDailyID, dailyID),
		)
		return
	}

	oldNames := make([]string, len(current))
	for i, t := range current {
		oldNames[i] = t.Name
	}
	newNames := make([]string, len(extracted))
	for i, t := range extracted {
		newNames[i] = t.Name
	}

	changes := namedrift.Compare(oldNames, newNames)
	if len(changes) == 0 {
		return
	}
	applied := o.patcher.Apply(ctx, dailyID, changes, extracted)
	if applied == 0 {
		return
	}
	logger.Info("name drift patched",
		logging.String(logging.FieldDailyID, dailyID),
		logging.Int("applied", applied),
	)
	if err := o.notifier.NotifyNameDrift(ctx, dailyID, applied); err != nil {
		logger.Warn("drift notification failed", logging.Error(err))
	}

	// Refresh the cache so the next fast path compares against patched names.
	if tasks, err := o.store.Tasks(ctx, dailyID); err == nil {
		o.cache.Set(snapshot.Entry{
			DailyID:    dailyID,
			Tasks:      tasks,
			Order:      orderFromTasks(tasks),
			CapturedAt: o.Now(),
		})
	} else {
		logger.Warn("failed to refresh snapshot after drift patch", logging.Error(err))
	}
}

// runExtractPreview performs a one-off extraction and reports the result in
// the log without writing anything to the store or the snapshot cache.
func (o *Orchestrator) runExtractPreview(ctx context.Context, logger *slog.Logger, dailyID string, frame detect.Frame) {
	projects, err := o.store.Projects(ctx)
	if err != nil {
		logger.Warn("failed to load project catalog, extracting without it",
			logging.Error(err),
			logging.String(logging.FieldDailyID, dailyID),
		)
		projects = nil
	}

	extracted, err := o.extractor.ExtractTasks(ctx, vision.Request{
		ImagePath: frame.ImagePath,
		Projects:  projects,
		Day:       o.Now(),
		Location:  o.loc,
	})
	if err != nil {
		o.failAction(ctx, logger, dailyID, "ocr preview", err)
		return
	}

	o.setLastError(nil)
	logger.Info("ocr preview complete",
		logging.String(logging.FieldDailyID, dailyID),
		logging.Int("tasks", len(extracted)),
	)
	for i, t := range extracted {
		logger.Info("ocr preview task",
			logging.Int("index", i+1),
			logging.String("task", t.Name),
			logging.String("status", string(t.Status)),
		)
	}
}

func (o *Orchestrator) failAction(ctx context.Context, logger *slog.Logger, dailyID, label string, err error) {
	o.setLastError(err)
	attrs := []logging.Attr{
		logging.Error(err),
		logging.String(logging.FieldDailyID, dailyID),
	}
	if id, ok := services.RequestIDFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldRequestID, id))
	}
	if action, ok := services.ActionFromContext(ctx); ok {
		attrs = append(attrs, logging.String(logging.FieldAction, action))
	}
	logging.ErrorWithContext(logger, label+" failed", "action_failed", attrs...)
	if notifyErr := o.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		logger.Warn("error notification failed", logging.Error(notifyErr))
	}
}

// orderFromTasks derives the status fingerprint from reconciled top-level
// tasks. Statuses and detection classes share the same label set.
func orderFromTasks(tasks []task.Task) []detect.Class {
	order := make([]detect.Class, len(tasks))
	for i, t := range tasks {
		order[i] = detect.Class(t.Status)
	}
	return order
}

func countOrderChanges(prev, next []detect.Class) int {
	changed := 0
	for i := range prev {
		if i < len(next) && prev[i] != next[i] {
			changed++
		}
	}
	return changed
}
