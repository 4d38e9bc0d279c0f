package namedrift

import (
	"context"
	"fmt"
	"log/slog"

	"cardwatch/internal/logging"
	"cardwatch/internal/services"
	"cardwatch/internal/store"
	"cardwatch/internal/task"
)

// Patcher applies detected name drift to the store with narrow per-record
// patches instead of a full tree rewrite. Document keys follow the
// zero-padded order index of the task's position on the sheet.
type Patcher struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPatcher constructs a patcher writing through the given store.
func NewPatcher(st *store.Store, logger *slog.Logger) *Patcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Patcher{store: st, logger: logger}
}

// OrderDocID renders the zero-padded document key for a task position.
func OrderDocID(index int) string {
	return fmt.Sprintf("%03d", index+1)
}

// Apply patches each change into the daily record. Added tasks are created
// as NOT_STARTED with their positional order and no timestamps. Removed
// tasks are logged and skipped: a missing symbol may be occlusion rather
// than deletion, so nothing is ever deleted here. A failed patch does not
// stop the remaining changes. Returns the number of applied patches.
func (p *Patcher) Apply(ctx context.Context, dailyID string, changes []Change, updated []task.Task) int {
	applied := 0
	for _, change := range changes {
		switch change.Kind {
		case ChangeRemoved:
			p.logger.Info("task missing from sheet, keeping stored record",
				logging.String(logging.FieldDailyID, dailyID),
				logging.Int("index", change.Index),
				logging.String("task", change.OldName))
			continue
		case ChangeAdded:
			if err := p.createAdded(ctx, dailyID, change, updated); err != nil {
				p.logger.Warn("added-task create failed",
					logging.String(logging.FieldDailyID, dailyID),
					logging.Int("index", change.Index),
					logging.Error(err))
				continue
			}
		default:
			if err := p.patchName(ctx, dailyID, change, updated); err != nil {
				p.logger.Warn("name patch failed",
					logging.String(logging.FieldDailyID, dailyID),
					logging.Int("index", change.Index),
					logging.Error(err))
				continue
			}
		}
		applied++
	}
	return applied
}

func (p *Patcher) createAdded(ctx context.Context, dailyID string, change Change, updated []task.Task) error {
	t := task.Task{
		Name:   change.NewName,
		Status: task.StatusNotStarted,
		Order:  change.Index + 1,
	}
	if change.Index < len(updated) {
		if ref := updated[change.Index].ProjectRef; ref != "" {
			t.ProjectRef = ref
		}
	}
	return p.store.PutTask(ctx, dailyID, OrderDocID(change.Index), t)
}

func (p *Patcher) patchName(ctx context.Context, dailyID string, change Change, updated []task.Task) error {
	fields := map[string]any{
		"name":  change.NewName,
		"order": change.Index + 1,
	}
	if change.Index < len(updated) {
		if ref := updated[change.Index].ProjectRef; ref != "" {
			fields["projectRef"] = ref
		}
	}

	err := p.store.UpdateTaskFields(ctx, dailyID, OrderDocID(change.Index), fields)
	if err == nil {
		return nil
	}
	if !services.Recoverable(err) {
		return err
	}

	// Target document does not exist yet under this key; create it.
	if change.Index < len(updated) {
		t := updated[change.Index].Clone()
		t.Name = change.NewName
		t.Order = change.Index + 1
		return p.store.PutTask(ctx, dailyID, OrderDocID(change.Index), t)
	}
	return p.store.MergeTask(ctx, dailyID, OrderDocID(change.Index), fields)
}
