package namedrift

import "testing"

func TestCompareIdentical(t *testing.T) {
	names := []string{"Review budget", "Call supplier"}
	if changes := Compare(names, names); len(changes) != 0 {
		t.Fatalf("changes = %v, want none", changes)
	}
}

func TestCompareIgnoresCaseAndSpacingNoise(t *testing.T) {
	old := []string{"Review  Budget"}
	new := []string{"review budget"}
	if changes := Compare(old, new); len(changes) != 0 {
		t.Fatalf("changes = %v, want none for normalization noise", changes)
	}
}

func TestCompareMajorRewrite(t *testing.T) {
	changes := Compare([]string{"pay rent"}, []string{"buzz thx"})
	if len(changes) != 1 || changes[0].Kind != ChangeMajor {
		t.Fatalf("changes = %v, want one major change", changes)
	}
}

func TestCompareModerateRewrite(t *testing.T) {
	changes := Compare([]string{"draft report"}, []string{"report"})
	if len(changes) != 1 || changes[0].Kind != ChangeModerate {
		t.Fatalf("changes = %v, want one moderate change", changes)
	}
	if changes[0].Similarity < 0.3 || changes[0].Similarity >= 0.7 {
		t.Fatalf("similarity = %v, want in [0.3, 0.7)", changes[0].Similarity)
	}
}

func TestCompareWordingChangeTwoAddedWords(t *testing.T) {
	changes := Compare(
		[]string{"call the supplier"},
		[]string{"call the new supplier today"},
	)
	if len(changes) != 1 || changes[0].Kind != ChangeWording {
		t.Fatalf("changes = %v, want one wording change", changes)
	}
}

func TestCompareLongWordReplacement(t *testing.T) {
	changes := Compare([]string{"call supplier"}, []string{"call suppliers"})
	if len(changes) != 1 || changes[0].Kind != ChangeWording {
		t.Fatalf("changes = %v, want wording change for long replaced word", changes)
	}
}

func TestCompareToleratesSmallWordTweak(t *testing.T) {
	// One short word changed, tiny length delta: handwriting noise.
	changes := Compare([]string{"fix login bug"}, []string{"fix login bugs"})
	if len(changes) != 0 {
		t.Fatalf("changes = %v, want none", changes)
	}
}

func TestCompareLengthMismatch(t *testing.T) {
	changes := Compare(
		[]string{"alpha", "beta"},
		[]string{"alpha", "beta", "gamma", "delta"},
	)
	if len(changes) != 2 {
		t.Fatalf("changes = %v, want two added entries", changes)
	}
	for i, c := range changes {
		if c.Kind != ChangeAdded {
			t.Fatalf("change %d kind = %v", i, c.Kind)
		}
	}
	if changes[0].Index != 2 || changes[1].Index != 3 {
		t.Fatalf("indexes = %d, %d", changes[0].Index, changes[1].Index)
	}

	changes = Compare([]string{"alpha", "beta", "gamma"}, []string{"alpha", "beta"})
	if len(changes) != 1 || changes[0].Kind != ChangeRemoved || changes[0].Index != 2 {
		t.Fatalf("changes = %v, want one removed entry at index 2", changes)
	}
}
