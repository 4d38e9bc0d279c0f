package textutil

import (
	"math"
	"testing"
)

func TestRatioIdentical(t *testing.T) {
	if got := Ratio("review budget", "review budget"); got != 1 {
		t.Fatalf("Ratio(identical) = %v, want 1", got)
	}
}

func TestRatioDisjoint(t *testing.T) {
	if got := Ratio("abc", "xyz"); got != 0 {
		t.Fatalf("Ratio(disjoint) = %v, want 0", got)
	}
}

func TestRatioEmpty(t *testing.T) {
	if got := Ratio("", ""); got != 1 {
		t.Fatalf("Ratio(empty) = %v, want 1", got)
	}
	if got := Ratio("abc", ""); got != 0 {
		t.Fatalf("Ratio(one empty) = %v, want 0", got)
	}
}

func TestRatioKnownValue(t *testing.T) {
	// "abcd" vs "bcde": matching blocks total 3 ("bcd"), 2*3/8 = 0.75.
	if got := Ratio("abcd", "bcde"); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("Ratio(abcd,bcde) = %v, want 0.75", got)
	}
}

func TestRatioSymmetricRange(t *testing.T) {
	pairs := [][2]string{
		{"call supplier", "call the supplier"},
		{"draft report", "final report"},
		{"sync", "standup sync 9:30"},
	}
	for _, p := range pairs {
		ab := Ratio(p[0], p[1])
		ba := Ratio(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("Ratio not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf("Ratio out of range for %q/%q: %v", p[0], p[1], ab)
		}
	}
}

func TestNormalizeCollapsesCaseAndSpace(t *testing.T) {
	if got := Normalize("  Review   BUDGET "); got != "review budget" {
		t.Fatalf("Normalize = %q", got)
	}
}

func TestWordDiff(t *testing.T) {
	added, removed := WordDiff("call the supplier", "call the new supplier today")
	if len(added) != 2 || added[0] != "new" || added[1] != "today" {
		t.Fatalf("added = %v", added)
	}
	if len(removed) != 0 {
		t.Fatalf("removed = %v", removed)
	}

	added, removed = WordDiff("draft quarterly report", "draft report")
	if len(added) != 0 {
		t.Fatalf("added = %v", added)
	}
	if len(removed) != 1 || removed[0] != "quarterly" {
		t.Fatalf("removed = %v", removed)
	}
}
