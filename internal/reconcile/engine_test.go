package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardwatch/internal/detect"
	"cardwatch/internal/logging"
	"cardwatch/internal/reconcile"
	"cardwatch/internal/services"
	"cardwatch/internal/store"
	"cardwatch/internal/task"
	"cardwatch/internal/testsupport"
)

const day = "2026-03-05"

func newEngine(t *testing.T) (*reconcile.Engine, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	e := reconcile.NewEngine(st, logging.NewNop(), time.UTC)
	e.Now = func() time.Time { return time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC) }
	return e, st
}

func TestMergeCreatesTasksAndSnapshot(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()

	merged, err := e.Merge(ctx, day, []task.Task{
		{Name: "Review budget", Status: task.StatusInProgress},
		{Name: "Call supplier", Status: task.StatusNotStarted},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("merged = %d tasks", len(merged))
	}
	if merged[0].Order != 1 || merged[1].Order != 2 {
		t.Fatalf("orders = %d, %d", merged[0].Order, merged[1].Order)
	}
	if merged[0].StartedAt == nil {
		t.Fatal("task created in progress should get startedAt")
	}

	stored, err := st.Tasks(ctx, day)
	if err != nil || len(stored) != 2 {
		t.Fatalf("stored tasks = %d, err %v", len(stored), err)
	}

	keys, err := st.SnapshotKeys(ctx, day)
	if err != nil || len(keys) != 1 {
		t.Fatalf("snapshot keys = %v, err %v", keys, err)
	}

	meta, ok, err := st.DailyMeta(ctx, day)
	if err != nil || !ok {
		t.Fatalf("DailyMeta: ok=%v err=%v", ok, err)
	}
	if meta.CreatedAt == nil || meta.CardScannedAt == nil {
		t.Fatalf("meta missing timestamps: %+v", meta)
	}
}

func TestMergeTransitionSetsStartedOnce(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()

	if _, err := e.Merge(ctx, day, []task.Task{{Name: "Draft report", Status: task.StatusNotStarted}}); err != nil {
		t.Fatalf("first merge: %v", err)
	}

	transition := time.Date(2026, 3, 5, 11, 0, 0, 0, time.UTC)
	e.Now = func() time.Time { return transition }
	if _, err := e.Merge(ctx, day, []task.Task{{Name: "Draft report", Status: task.StatusInProgress}}); err != nil {
		t.Fatalf("second merge: %v", err)
	}

	// A repeat of the same observation an hour later must not move anything.
	e.Now = func() time.Time { return transition.Add(time.Hour) }
	if _, err := e.Merge(ctx, day, []task.Task{{Name: "Draft report", Status: task.StatusInProgress}}); err != nil {
		t.Fatalf("third merge: %v", err)
	}

	stored, err := st.Tasks(ctx, day)
	if err != nil || len(stored) != 1 {
		t.Fatalf("stored = %d, err %v", len(stored), err)
	}
	got := stored[0]
	if got.StartedAt == nil || !got.StartedAt.Equal(transition) {
		t.Fatalf("startedAt = %v, want first transition time %v", got.StartedAt, transition)
	}
	if got.PlannedAt == nil || !got.PlannedAt.Equal(time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("plannedAt = %v, want first merge time", got.PlannedAt)
	}
}

func TestMergeCarriesProjectRef(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()

	if _, err := e.Merge(ctx, day, []task.Task{{Name: "Fix login", Status: task.StatusNotStarted, ProjectRef: "website"}}); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	// New extraction without a projectRef keeps the stored one.
	if _, err := e.Merge(ctx, day, []task.Task{{Name: "Fix login", Status: task.StatusInProgress}}); err != nil {
		t.Fatalf("second merge: %v", err)
	}

	stored, _ := st.Tasks(ctx, day)
	if stored[0].ProjectRef != "website" {
		t.Fatalf("projectRef = %q, want carried over", stored[0].ProjectRef)
	}
}

func TestMergeSubtasksEmbeddedNotTopLevel(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()

	if _, err := e.Merge(ctx, day, []task.Task{
		{Name: "Launch prep", Status: task.StatusInProgress, Subtasks: []task.Task{
			{Name: "Write announcement", Status: task.StatusNotStarted},
			{Name: "Update docs", Status: task.StatusCompleted},
		}},
	}); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	stored, err := st.Tasks(ctx, day)
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("top-level count = %d, want 1 (subtasks embedded)", len(stored))
	}
	subs := stored[0].Subtasks
	if len(subs) != 2 {
		t.Fatalf("subtasks = %d", len(subs))
	}
	if subs[0].Order != 1 || subs[1].Order != 2 {
		t.Fatalf("subtask orders = %d, %d", subs[0].Order, subs[1].Order)
	}
	if subs[1].CompletedAt == nil {
		t.Fatal("completed subtask should get completedAt")
	}
}

func TestMergeSubtaskTransitionDetection(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()

	if _, err := e.Merge(ctx, day, []task.Task{
		{Name: "Launch prep", Status: task.StatusInProgress, Subtasks: []task.Task{
			{Name: "Update docs", Status: task.StatusNotStarted},
		}},
	}); err != nil {
		t.Fatalf("first merge: %v", err)
	}

	later := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	e.Now = func() time.Time { return later }
	if _, err := e.Merge(ctx, day, []task.Task{
		{Name: "Launch prep", Status: task.StatusInProgress, Subtasks: []task.Task{
			{Name: "Update docs", Status: task.StatusInProgress},
		}},
	}); err != nil {
		t.Fatalf("second merge: %v", err)
	}

	stored, _ := st.Tasks(ctx, day)
	sub := stored[0].Subtasks[0]
	if sub.StartedAt == nil || !sub.StartedAt.Equal(later) {
		t.Fatalf("subtask startedAt = %v, want transition time", sub.StartedAt)
	}
}

func TestApplyOrderLengthMismatch(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.ApplyOrder(context.Background(), day,
		[]task.Task{{Name: "a"}, {Name: "b"}},
		[]detect.Class{detect.ClassCompleted})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation marker", err)
	}
}

func TestApplyOrderReassignsStatusesPositionally(t *testing.T) {
	e, st := newEngine(t)
	ctx := context.Background()

	cached, err := e.Merge(ctx, day, []task.Task{
		{Name: "first", Status: task.StatusInProgress},
		{Name: "second", Status: task.StatusNotStarted},
	})
	if err != nil {
		t.Fatalf("seed merge: %v", err)
	}

	later := time.Date(2026, 3, 5, 13, 0, 0, 0, time.UTC)
	e.Now = func() time.Time { return later }
	merged, err := e.ApplyOrder(ctx, day, cached, []detect.Class{detect.ClassCompleted, detect.ClassInProgress})
	if err != nil {
		t.Fatalf("ApplyOrder: %v", err)
	}
	if merged[0].Status != task.StatusCompleted || merged[1].Status != task.StatusInProgress {
		t.Fatalf("statuses = %v, %v", merged[0].Status, merged[1].Status)
	}

	stored, _ := st.Tasks(ctx, day)
	if stored[0].CompletedAt == nil || !stored[0].CompletedAt.Equal(later) {
		t.Fatalf("completedAt = %v, want fast-path transition time", stored[0].CompletedAt)
	}
	if stored[1].StartedAt == nil || !stored[1].StartedAt.Equal(later) {
		t.Fatalf("startedAt = %v, want fast-path transition time", stored[1].StartedAt)
	}
}
