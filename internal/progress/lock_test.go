package progress

import (
	"reflect"
	"testing"

	"github.com/pathwise-lms/pathwise/internal/course"
)

func lockInv() []course.ContentItem {
	// v1 video, t2 text, q3 quiz whose prerequisite is v1 (not its list
	// predecessor t2).
	return []course.ContentItem{
		{ID: "v1", Type: course.ContentVideo, QuizID: "qz"},
		{ID: "t2", Type: course.ContentText},
		{ID: "q3", Type: course.ContentQuiz, QuizID: "qz", PrereqContentID: "v1"},
		{ID: "t4", Type: course.ContentText},
	}
}

func TestIsLocked_FirstItemNeverLocked(t *testing.T) {
	inv := lockInv()
	if IsLocked(inv[0], inv, set()) {
		t.Fatalf("first item must never be locked")
	}
}

func TestIsLocked_PredecessorGates(t *testing.T) {
	inv := lockInv()
	if !IsLocked(inv[1], inv, set()) {
		t.Fatalf("t2 must be locked while v1 is incomplete")
	}
	if IsLocked(inv[1], inv, set("v1")) {
		t.Fatalf("t2 must unlock once v1 completes")
	}
	if !IsLocked(inv[3], inv, set("v1", "t2")) {
		t.Fatalf("t4 must stay locked while q3 is incomplete")
	}
}

func TestIsLocked_QuizPrereqOverridesPredecessor(t *testing.T) {
	inv := lockInv()
	// v1 watched but t2 skipped: the quiz item keys off its linked
	// video, not the list predecessor, so it is open.
	if IsLocked(inv[2], inv, set("v1")) {
		t.Fatalf("q3 must unlock on its linked video alone")
	}
	// Predecessor done but the linked video is not: still locked.
	if !IsLocked(inv[2], inv, set("t2")) {
		t.Fatalf("q3 must stay locked until v1 completes")
	}
}

func TestLockedIDs_SequentialUnlock(t *testing.T) {
	inv := []course.ContentItem{
		{ID: "a", Type: course.ContentText},
		{ID: "b", Type: course.ContentText},
		{ID: "c", Type: course.ContentText},
	}
	cases := []struct {
		completed map[string]struct{}
		want      []string
	}{
		{set(), []string{"b", "c"}},
		{set("a"), []string{"c"}},
		{set("a", "b"), []string{}},
		{set("a", "b", "c"), []string{}},
	}
	for i, tc := range cases {
		got := LockedIDs(inv, tc.completed)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("case %d: locked = %v, want %v", i, got, tc.want)
		}
	}
}

func TestLockedIDs_Deterministic(t *testing.T) {
	inv := lockInv()
	completed := set("v1")
	first := LockedIDs(inv, completed)
	for i := 0; i < 20; i++ {
		if got := LockedIDs(inv, completed); !reflect.DeepEqual(got, first) {
			t.Fatalf("lock projection not deterministic: %v vs %v", got, first)
		}
	}
}

func TestLockedIDs_MonotonicUnlock(t *testing.T) {
	// Completion proceeds front to back; at every prefix, an item whose
	// predecessor is missing from the completed set is locked.
	inv := []course.ContentItem{
		{ID: "a", Type: course.ContentText},
		{ID: "b", Type: course.ContentVideo},
		{ID: "c", Type: course.ContentText},
		{ID: "d", Type: course.ContentText},
	}
	completed := set()
	for n := 0; n < len(inv); n++ {
		for i, ci := range inv {
			locked := IsLocked(ci, inv, completed)
			wantLocked := i > 0 && !has(completed, inv[i-1].ID)
			if locked != wantLocked {
				t.Fatalf("prefix %d item %s: locked=%v want %v", n, ci.ID, locked, wantLocked)
			}
		}
		completed[inv[n].ID] = struct{}{}
	}
}

func has(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}
