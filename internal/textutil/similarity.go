package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerCaser = cases.Lower(language.Und)

// Normalize lowercases a name and collapses runs of whitespace, so handwriting
// artifacts like double spaces or inconsistent casing do not register as
// drift.
func Normalize(s string) string {
	return strings.Join(strings.Fields(lowerCaser.String(s)), " ")
}

// Words returns the normalized word sequence of a name.
func Words(s string) []string {
	return strings.Fields(Normalize(s))
}

// WordDiff computes the multiset difference between two names' normalized
// words: words present in new but not old (added) and vice versa (removed).
func WordDiff(oldName, newName string) (added, removed []string) {
	oldCounts := make(map[string]int)
	for _, w := range Words(oldName) {
		oldCounts[w]++
	}
	for _, w := range Words(newName) {
		if oldCounts[w] > 0 {
			oldCounts[w]--
			continue
		}
		added = append(added, w)
	}
	for _, w := range Words(oldName) {
		if oldCounts[w] > 0 {
			oldCounts[w]--
			removed = append(removed, w)
		}
	}
	return added, removed
}

// Ratio measures the similarity of two strings as 2*M/T, where M is the
// total length of the longest matching blocks and T the combined length.
// Identical strings score 1, fully distinct strings 0. Inputs are compared
// as given; callers wanting case-insensitive comparison normalize first.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchTotal(ra, rb)) / float64(total)
}

// matchTotal sums the matching-block lengths: find the longest common
// substring, then recurse into the unmatched regions on either side.
func matchTotal(a, b []rune) int {
	i, j, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size + matchTotal(a[:i], b[:j]) + matchTotal(a[i+size:], b[j+size:])
}

func longestMatch(a, b []rune) (bestI, bestJ, bestSize int) {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := range a {
		for j := range b {
			if a[i] != b[j] {
				cur[j+1] = 0
				continue
			}
			cur[j+1] = prev[j] + 1
			if cur[j+1] > bestSize {
				bestSize = cur[j+1]
				bestI = i - bestSize + 1
				bestJ = j - bestSize + 1
			}
		}
		prev, cur = cur, prev
	}
	return bestI, bestJ, bestSize
}
