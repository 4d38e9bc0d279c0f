package reconcile

import (
	"testing"
	"time"

	"cardwatch/internal/task"
)

var testNow = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

func ts(h, m int) *time.Time {
	t := time.Date(2026, 3, 5, h, m, 0, 0, time.UTC)
	return &t
}

func TestTimestampsNewTask(t *testing.T) {
	tests := []struct {
		name          string
		status        task.Status
		wantStarted   bool
		wantCompleted bool
	}{
		{"not started", task.StatusNotStarted, false, false},
		{"created in progress", task.StatusInProgress, true, false},
		{"created completed", task.StatusCompleted, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyTimestamps(task.Task{Name: "t", Status: tt.status}, nil, testNow, time.UTC)
			if got.PlannedAt == nil || !got.PlannedAt.Equal(testNow) {
				t.Fatalf("plannedAt = %v, want now", got.PlannedAt)
			}
			if (got.StartedAt != nil) != tt.wantStarted {
				t.Fatalf("startedAt = %v, want set=%v", got.StartedAt, tt.wantStarted)
			}
			if (got.CompletedAt != nil) != tt.wantCompleted {
				t.Fatalf("completedAt = %v, want set=%v", got.CompletedAt, tt.wantCompleted)
			}
		})
	}
}

func TestTimestampsTransitionIntoInProgress(t *testing.T) {
	prev := task.Task{Name: "t", Status: task.StatusNotStarted, PlannedAt: ts(8, 0)}
	got := ApplyTimestamps(task.Task{Name: "t", Status: task.StatusInProgress}, &prev, testNow, time.UTC)
	if !got.PlannedAt.Equal(*prev.PlannedAt) {
		t.Fatalf("plannedAt rewritten: %v", got.PlannedAt)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(testNow) {
		t.Fatalf("startedAt = %v, want now", got.StartedAt)
	}
	if got.CompletedAt != nil {
		t.Fatalf("completedAt = %v, want nil", got.CompletedAt)
	}
}

func TestTimestampsRepeatedStatusIsIdempotent(t *testing.T) {
	prev := task.Task{
		Name:      "t",
		Status:    task.StatusInProgress,
		PlannedAt: ts(8, 0),
		StartedAt: ts(9, 0),
	}
	got := ApplyTimestamps(task.Task{Name: "t", Status: task.StatusInProgress}, &prev, testNow, time.UTC)
	if !got.StartedAt.Equal(*prev.StartedAt) {
		t.Fatalf("startedAt moved on repeated update: %v", got.StartedAt)
	}
}

func TestTimestampsStartedNeverRewritten(t *testing.T) {
	// Out-of-order arrival: startedAt already set even though the previous
	// status reads NOT_STARTED. The transition must not overwrite it.
	prev := task.Task{
		Name:      "t",
		Status:    task.StatusNotStarted,
		PlannedAt: ts(8, 0),
		StartedAt: ts(8, 30),
	}
	got := ApplyTimestamps(task.Task{Name: "t", Status: task.StatusInProgress}, &prev, testNow, time.UTC)
	if !got.StartedAt.Equal(*prev.StartedAt) {
		t.Fatalf("startedAt rewritten: %v", got.StartedAt)
	}
}

func TestTimestampsCompletion(t *testing.T) {
	prev := task.Task{
		Name:      "t",
		Status:    task.StatusInProgress,
		PlannedAt: ts(8, 0),
		StartedAt: ts(9, 0),
	}
	got := ApplyTimestamps(task.Task{Name: "t", Status: task.StatusCompleted}, &prev, testNow, time.UTC)
	if got.CompletedAt == nil || !got.CompletedAt.Equal(testNow) {
		t.Fatalf("completedAt = %v, want now", got.CompletedAt)
	}
	if !got.StartedAt.Equal(*prev.StartedAt) {
		t.Fatalf("startedAt changed on completion: %v", got.StartedAt)
	}

	// Completing again later must not move the timestamp.
	again := ApplyTimestamps(task.Task{Name: "t", Status: task.StatusCompleted}, &got, testNow.Add(time.Hour), time.UTC)
	if !again.CompletedAt.Equal(testNow) {
		t.Fatalf("completedAt moved on repeat: %v", again.CompletedAt)
	}
}

func TestTimestampsMeetingSuppliedStart(t *testing.T) {
	supplied := ts(14, 30)
	got := ApplyTimestamps(task.Task{Name: "Board meeting", Status: task.StatusMeeting, StartedAt: supplied}, nil, testNow, time.UTC)
	if !got.StartedAt.Equal(*supplied) {
		t.Fatalf("startedAt = %v, want supplied value", got.StartedAt)
	}
}

func TestTimestampsMeetingClockFromName(t *testing.T) {
	got := ApplyTimestamps(task.Task{Name: "Standup 9:30 am", Status: task.StatusMeeting}, nil, testNow, time.UTC)
	want := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	if got.StartedAt == nil || !got.StartedAt.Equal(want) {
		t.Fatalf("startedAt = %v, want %v", got.StartedAt, want)
	}
}

func TestTimestampsMeetingNoToken(t *testing.T) {
	got := ApplyTimestamps(task.Task{Name: "Team offsite", Status: task.StatusMeeting}, nil, testNow, time.UTC)
	if got.StartedAt != nil {
		t.Fatalf("startedAt = %v, want nil without a time token", got.StartedAt)
	}
}

func TestTimestampsMeetingNeverAutoCompletes(t *testing.T) {
	prev := task.Task{Name: "Standup 9:30 am", Status: task.StatusMeeting, PlannedAt: ts(8, 0)}
	got := ApplyTimestamps(task.Task{Name: "Standup 9:30 am", Status: task.StatusMeeting}, &prev, testNow, time.UTC)
	if got.CompletedAt != nil {
		t.Fatalf("completedAt = %v, want nil for meeting", got.CompletedAt)
	}
}

func TestTimestampsPreviousWithoutPlannedStaysAbsent(t *testing.T) {
	prev := task.Task{Name: "t", Status: task.StatusNotStarted}
	got := ApplyTimestamps(task.Task{Name: "t", Status: task.StatusNotStarted}, &prev, testNow, time.UTC)
	if got.PlannedAt != nil {
		t.Fatalf("plannedAt = %v, want previous absent value preserved", got.PlannedAt)
	}
}
