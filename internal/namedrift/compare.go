package namedrift

import (
	"cardwatch/internal/textutil"
)

// ChangeKind classifies one detected difference between two name lists.
type ChangeKind string

const (
	// ChangeMajor marks a near-total rewrite (similarity < 0.3).
	ChangeMajor ChangeKind = "major_change"
	// ChangeModerate marks a substantial rewrite (similarity < 0.7).
	ChangeModerate ChangeKind = "moderate_change"
	// ChangeWording marks a near-match whose word-level diff still reads as
	// a real edit rather than recognition noise.
	ChangeWording ChangeKind = "wording_change"
	// ChangeAdded marks an index present only in the new list.
	ChangeAdded ChangeKind = "added_task"
	// ChangeRemoved marks an index present only in the old list.
	ChangeRemoved ChangeKind = "removed_task"
)

// Change is one reportable difference at a list position.
type Change struct {
	Index      int
	Kind       ChangeKind
	OldName    string
	NewName    string
	Similarity float64
}

const (
	majorThreshold    = 0.3
	moderateThreshold = 0.7
)

// Compare diffs two name lists pairwise by position. Overlapping indexes are
// scored by normalized similarity ratio and, for near matches, by word-level
// rules that separate deliberate edits from handwriting noise. Length
// mismatches are reported as added or removed entries.
func Compare(oldNames, newNames []string) []Change {
	var changes []Change

	n := len(oldNames)
	if len(newNames) < n {
		n = len(newNames)
	}
	for i := 0; i < n; i++ {
		if c, ok := compareNames(i, oldNames[i], newNames[i]); ok {
			changes = append(changes, c)
		}
	}
	for i := n; i < len(newNames); i++ {
		changes = append(changes, Change{Index: i, Kind: ChangeAdded, NewName: newNames[i]})
	}
	for i := n; i < len(oldNames); i++ {
		changes = append(changes, Change{Index: i, Kind: ChangeRemoved, OldName: oldNames[i]})
	}
	return changes
}

func compareNames(index int, oldName, newName string) (Change, bool) {
	normOld := textutil.Normalize(oldName)
	normNew := textutil.Normalize(newName)
	if normOld == normNew {
		return Change{}, false
	}

	ratio := textutil.Ratio(normOld, normNew)
	change := Change{Index: index, OldName: oldName, NewName: newName, Similarity: ratio}

	switch {
	case ratio < majorThreshold:
		change.Kind = ChangeMajor
		return change, true
	case ratio < moderateThreshold:
		change.Kind = ChangeModerate
		return change, true
	}

	if wordsChanged(oldName, newName) || lengthDrift(normOld, normNew) {
		change.Kind = ChangeWording
		return change, true
	}
	return Change{}, false
}

// wordsChanged applies the near-match rules: two or more added (or removed)
// words with one of length >= 4, or any single changed word of length >= 7.
func wordsChanged(oldName, newName string) bool {
	added, removed := textutil.WordDiff(oldName, newName)
	if longestWord(added) >= 7 || longestWord(removed) >= 7 {
		return true
	}
	if len(added) >= 2 && longestWord(added) >= 4 {
		return true
	}
	return len(removed) >= 2 && longestWord(removed) >= 4
}

func longestWord(words []string) int {
	longest := 0
	for _, w := range words {
		if len(w) > longest {
			longest = len(w)
		}
	}
	return longest
}

func lengthDrift(a, b string) bool {
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	return diff > 3
}
