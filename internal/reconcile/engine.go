package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cardwatch/internal/detect"
	"cardwatch/internal/logging"
	"cardwatch/internal/services"
	"cardwatch/internal/store"
	"cardwatch/internal/task"
)

// Engine merges freshly observed task state into the store. A merge never
// deletes tasks and never rewrites timestamps that are already set; one bad
// task aborts only its own write, not the batch.
type Engine struct {
	store  *store.Store
	logger *slog.Logger
	loc    *time.Location

	// Now is injectable for tests.
	Now func() time.Time
}

// NewEngine constructs an engine writing through the given store.
func NewEngine(st *store.Store, logger *slog.Logger, loc *time.Location) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Engine{store: st, logger: logger, loc: loc, Now: time.Now}
}

// Merge reconciles an extracted task tree into the daily record. Each
// top-level task and its immediate subtasks are matched against the
// flattened previous state by composite key, run through the timestamp rule,
// and merge-written keyed by encoded composite key. One audit snapshot is
// appended afterwards, keyed by the write timestamp. The merged tree is
// returned for snapshot caching.
func (e *Engine) Merge(ctx context.Context, dailyID string, extracted []task.Task) ([]task.Task, error) {
	previous, err := e.store.Tasks(ctx, dailyID)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "reconcile", "read previous tasks", dailyID, err)
	}
	flat := task.Flatten(previous)
	now := e.Now().In(e.loc)

	if err := e.upsertDailyMeta(ctx, dailyID, now); err != nil {
		e.logger.Warn("daily meta upsert failed",
			logging.String(logging.FieldDailyID, dailyID),
			logging.Error(err))
	}

	merged := make([]task.Task, 0, len(extracted))
	written := 0
	for i, nt := range extracted {
		m := e.mergeOne(nt, "", i+1, flat, now)
		merged = append(merged, m)

		docID := task.EncodeKey("", m.Name)
		if err := e.store.MergeTaskRecord(ctx, dailyID, docID, m); err != nil {
			e.logger.Warn("task write failed",
				logging.String(logging.FieldDailyID, dailyID),
				logging.String("task", m.Name),
				logging.Error(err))
			continue
		}
		written++
	}

	key := now.UTC().Format(time.RFC3339Nano)
	meta, _, metaErr := e.store.DailyMeta(ctx, dailyID)
	if metaErr != nil {
		e.logger.Warn("daily meta read failed before snapshot",
			logging.String(logging.FieldDailyID, dailyID),
			logging.Error(metaErr))
	}
	// The audit write is deliberately not atomic with the task writes.
	if err := e.store.AppendSnapshot(ctx, dailyID, key, store.SnapshotBody{Meta: meta, Tasks: merged}); err != nil {
		e.logger.Warn("audit snapshot write failed",
			logging.String(logging.FieldDailyID, dailyID),
			logging.Error(err))
	}

	e.logger.Info("reconciled daily record",
		logging.String(logging.FieldDailyID, dailyID),
		logging.Int("tasks", len(merged)),
		logging.Int("written", written))
	return merged, nil
}

// ApplyOrder is the fast path: reassign statuses positionally from an order
// fingerprint of equal length, then reconcile as usual so transition
// detection still runs against the store's previous state. No extraction
// call is made.
func (e *Engine) ApplyOrder(ctx context.Context, dailyID string, cached []task.Task, order []detect.Class) ([]task.Task, error) {
	if len(order) != len(cached) {
		return nil, services.Wrap(services.ErrValidation, "fast path", "apply order",
			fmt.Sprintf("fingerprint length %d does not match cached %d", len(order), len(cached)), nil)
	}
	updated := task.CloneAll(cached)
	for i, class := range order {
		status, ok := task.StatusFromClass(class)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "fast path", "apply order",
				fmt.Sprintf("label %s has no task status", class), nil)
		}
		updated[i].Status = status
	}
	return e.Merge(ctx, dailyID, updated)
}

func (e *Engine) mergeOne(nt task.Task, parent string, order int, flat map[string]task.Task, now time.Time) task.Task {
	var prev *task.Task
	if p, ok := flat[task.MapKey(parent, nt.Name)]; ok {
		cp := p
		prev = &cp
	}

	m := ApplyTimestamps(nt, prev, now, e.loc)
	m.Order = order
	if m.ProjectRef == "" && prev != nil {
		m.ProjectRef = prev.ProjectRef
	}

	// Subtasks nest exactly one level.
	if parent != "" {
		m.Subtasks = nil
		return m
	}
	if len(nt.Subtasks) > 0 {
		subs := make([]task.Task, 0, len(nt.Subtasks))
		for j, sub := range nt.Subtasks {
			subs = append(subs, e.mergeOne(sub, nt.Name, j+1, flat, now))
		}
		m.Subtasks = subs
	}
	return m
}

func (e *Engine) upsertDailyMeta(ctx context.Context, dailyID string, now time.Time) error {
	_, exists, err := e.store.DailyMeta(ctx, dailyID)
	if err != nil {
		return err
	}
	stamp := now.Format(time.RFC3339)
	fields := map[string]any{
		"date":          dailyID,
		"updatedAt":     stamp,
		"cardScannedAt": stamp,
	}
	if !exists {
		fields["createdAt"] = stamp
	}
	return e.store.UpsertDailyMeta(ctx, dailyID, fields)
}
