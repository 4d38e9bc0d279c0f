package task

import (
	"fmt"
	"time"

	"cardwatch/internal/detect"
)

// Status identifies where a task sits in its lifecycle. The values double as
// the serialized form in store documents.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusMeeting    Status = "MEETING"
	StatusCompleted  Status = "COMPLETED"
)

// Valid reports whether the status is one of the closed set.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusMeeting, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus converts a serialized status back into the enum.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown task status %q", raw)
	}
	return s, nil
}

// StatusFromClass maps a detected symbol class to a task status. The
// annotation class has no status.
func StatusFromClass(class detect.Class) (Status, bool) {
	switch class {
	case detect.ClassNotStarted:
		return StatusNotStarted, true
	case detect.ClassInProgress:
		return StatusInProgress, true
	case detect.ClassMeeting:
		return StatusMeeting, true
	case detect.ClassCompleted:
		return StatusCompleted, true
	}
	return "", false
}

// Task is one handwritten entry on the sheet. Subtasks nest exactly one
// level; they are embedded on the parent document and never written as
// top-level records.
//
// PlannedAt is set once per task lifetime. StartedAt and CompletedAt are set
// at most once, on the first transition into IN_PROGRESS and COMPLETED, and
// never rewritten afterwards. MEETING tasks use StartedAt as the scheduled
// start time.
type Task struct {
	Name        string     `json:"name"`
	Status      Status     `json:"status"`
	PlannedAt   *time.Time `json:"plannedAt,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Order       int        `json:"order"`
	ProjectRef  string     `json:"projectRef,omitempty"`
	Subtasks    []Task     `json:"subtasks,omitempty"`
}

// Clone returns a deep copy, subtasks included.
func (t Task) Clone() Task {
	out := t
	out.PlannedAt = cloneTime(t.PlannedAt)
	out.StartedAt = cloneTime(t.StartedAt)
	out.CompletedAt = cloneTime(t.CompletedAt)
	if len(t.Subtasks) > 0 {
		out.Subtasks = make([]Task, len(t.Subtasks))
		for i, sub := range t.Subtasks {
			out.Subtasks[i] = sub.Clone()
		}
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// CloneAll deep-copies a task slice.
func CloneAll(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// DailyMeta is the metadata blob on a daily record.
type DailyMeta struct {
	Date          string     `json:"date"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	CardScannedAt *time.Time `json:"cardScannedAt,omitempty"`
}

// DailyID renders the calendar-day identifier for a moment in the given
// location.
func DailyID(at time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return at.In(loc).Format("2006-01-02")
}

// Flatten builds the one-level lookup map used for transition detection:
// top-level tasks keyed by name, their immediate subtasks keyed by
// parentName::name. Later entries win on key collision.
func Flatten(tasks []Task) map[string]Task {
	flat := make(map[string]Task, len(tasks))
	for _, t := range tasks {
		flat[MapKey("", t.Name)] = t
		for _, sub := range t.Subtasks {
			flat[MapKey(t.Name, sub.Name)] = sub
		}
	}
	return flat
}
