package task

import (
	"testing"
	"time"
)

func TestKeyRoundTrip(t *testing.T) {
	cases := []struct {
		parent, name string
	}{
		{"", "Review budget"},
		{"Review budget", "Send follow-up"},
		{"", "deploy :: staging"},
		{"a::b", "c/d e"},
		{"", "100% done?"},
	}
	for _, tc := range cases {
		encoded := EncodeKey(tc.parent, tc.name)
		parent, name, err := DecodeKey(encoded)
		if err != nil {
			t.Fatalf("DecodeKey(%q): %v", encoded, err)
		}
		if parent != tc.parent || name != tc.name {
			t.Fatalf("round trip (%q,%q) -> %q -> (%q,%q)", tc.parent, tc.name, encoded, parent, name)
		}
	}
}

func TestMapKeyShape(t *testing.T) {
	if got := MapKey("", "alpha"); got != "alpha" {
		t.Fatalf("MapKey top-level = %q", got)
	}
	if got := MapKey("alpha", "beta"); got != "alpha::beta" {
		t.Fatalf("MapKey subtask = %q", got)
	}
}

func TestFlattenIncludesSubtasksOneLevel(t *testing.T) {
	tasks := []Task{
		{Name: "parent", Status: StatusInProgress, Subtasks: []Task{
			{Name: "child", Status: StatusNotStarted},
		}},
		{Name: "solo", Status: StatusCompleted},
	}
	flat := Flatten(tasks)
	if len(flat) != 3 {
		t.Fatalf("flat map size = %d, want 3", len(flat))
	}
	if flat["parent::child"].Status != StatusNotStarted {
		t.Fatal("subtask missing from flat map")
	}
	if flat["solo"].Status != StatusCompleted {
		t.Fatal("top-level task missing from flat map")
	}
}

func TestCoerceTime(t *testing.T) {
	loc := time.UTC
	cases := []struct {
		raw  string
		ok   bool
		want time.Time
	}{
		{"2026-03-05T09:30:00Z", true, time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)},
		{"2026-03-05 09:30:00", true, time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)},
		{"2026-03-05", true, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"N/A", false, time.Time{}},
		{"", false, time.Time{}},
		{"yesterday", false, time.Time{}},
	}
	for _, tc := range cases {
		got, ok := CoerceTime(tc.raw, loc)
		if ok != tc.ok {
			t.Fatalf("CoerceTime(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("CoerceTime(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	loc := time.UTC
	day := time.Date(2026, 3, 5, 14, 22, 11, 0, loc)
	at := func(h, m int) time.Time {
		return time.Date(2026, 3, 5, h, m, 0, 0, loc)
	}
	cases := []struct {
		name string
		ok   bool
		want time.Time
	}{
		{"Standup 9:30 am with infra", true, at(9, 30)},
		{"Review at 2:15pm", true, at(14, 15)},
		{"Retro 16:00", true, at(16, 0)},
		{"Lunch 12 pm", true, at(12, 0)},
		{"Midnight check 12 am", true, at(0, 0)},
		{"Call client 7pm", true, at(19, 0)},
		{"Ship the report", false, time.Time{}},
		{"Budget 2026 review", false, time.Time{}},
	}
	for _, tc := range cases {
		got, ok := ParseClock(tc.name, day, loc)
		if ok != tc.ok {
			t.Fatalf("ParseClock(%q) ok = %v, want %v", tc.name, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("ParseClock(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestStatusFromClassAndParse(t *testing.T) {
	if _, err := ParseStatus("DONE"); err == nil {
		t.Fatal("ParseStatus should reject unknown values")
	}
	s, err := ParseStatus("MEETING")
	if err != nil || s != StatusMeeting {
		t.Fatalf("ParseStatus(MEETING) = %v, %v", s, err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	orig := Task{
		Name:      "parent",
		Status:    StatusInProgress,
		StartedAt: &now,
		Subtasks:  []Task{{Name: "child"}},
	}
	c := orig.Clone()
	*c.StartedAt = now.Add(time.Hour)
	c.Subtasks[0].Name = "changed"
	if !orig.StartedAt.Equal(now) {
		t.Fatal("clone shares StartedAt pointer")
	}
	if orig.Subtasks[0].Name != "child" {
		t.Fatal("clone shares subtask slice")
	}
}
