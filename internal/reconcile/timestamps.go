package reconcile

import (
	"time"

	"cardwatch/internal/task"
)

// ApplyTimestamps computes the timestamp fields of a freshly observed task
// from its previous stored record, if any. It is a pure function of
// (newTask, previous, now).
//
// plannedAt is preserved verbatim from the previous record when one exists,
// otherwise set to now. startedAt and completedAt are set at most once, on
// the first transition into IN_PROGRESS and COMPLETED; once set they are
// never cleared or rewritten. MEETING tasks use startedAt as the scheduled
// start: an explicitly supplied value wins, else a time-of-day token parsed
// from the name anchored to today, else nil. Meetings never auto-complete.
func ApplyTimestamps(newTask task.Task, previous *task.Task, now time.Time, loc *time.Location) task.Task {
	out := newTask

	if previous != nil {
		out.PlannedAt = previous.PlannedAt
	} else {
		t := now
		out.PlannedAt = &t
	}

	if newTask.Status == task.StatusMeeting {
		if newTask.StartedAt == nil {
			if clock, ok := task.ParseClock(newTask.Name, now, loc); ok {
				out.StartedAt = &clock
			} else {
				out.StartedAt = nil
			}
		}
		if previous != nil {
			out.CompletedAt = previous.CompletedAt
		} else {
			out.CompletedAt = nil
		}
		return out
	}

	if previous == nil {
		out.StartedAt = nil
		out.CompletedAt = nil
		switch newTask.Status {
		case task.StatusInProgress:
			t := now
			out.StartedAt = &t
		case task.StatusCompleted:
			t := now
			out.StartedAt = &t
			out.CompletedAt = &t
		}
		return out
	}

	out.StartedAt = previous.StartedAt
	out.CompletedAt = previous.CompletedAt
	if newTask.Status == task.StatusInProgress && previous.Status != task.StatusInProgress && out.StartedAt == nil {
		t := now
		out.StartedAt = &t
	}
	if newTask.Status == task.StatusCompleted && previous.Status != task.StatusCompleted && out.CompletedAt == nil {
		t := now
		out.CompletedAt = &t
	}
	return out
}
