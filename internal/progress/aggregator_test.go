package progress

import (
	"testing"

	"github.com/pathwise-lms/pathwise/internal/course"
)

func inv3() []course.ContentItem {
	// Three items; the second is a video with a linked follow-up quiz,
	// so the course has four steps in total.
	return []course.ContentItem{
		{ID: "c1", CourseID: "crs", Type: course.ContentText, OrderIndex: 0},
		{ID: "c2", CourseID: "crs", Type: course.ContentVideo, OrderIndex: 1, QuizID: "qz2"},
		{ID: "c3", CourseID: "crs", Type: course.ContentText, OrderIndex: 2},
	}
}

func set(ids ...string) map[string]struct{} {
	m := map[string]struct{}{}
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestRecompute_LinkedQuizCountsAsStep(t *testing.T) {
	// Item 1 and item 2's video done, its quiz not: 2 of 4 steps.
	sum := Recompute(inv3(), set("c1", "c2"))
	if sum.Percentage != 50 || sum.ShouldComplete {
		t.Fatalf("summary = %+v, want 50%% incomplete", sum)
	}

	sum = Recompute(inv3(), set("c1", "c2", "qz2"))
	if sum.Percentage != 75 {
		t.Fatalf("percentage = %d, want 75", sum.Percentage)
	}

	sum = Recompute(inv3(), set("c1", "c2", "qz2", "c3"))
	if sum.Percentage != 100 || !sum.ShouldComplete {
		t.Fatalf("summary = %+v, want 100%% complete", sum)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	completed := set("c1", "qz2")
	first := Recompute(inv3(), completed)
	for i := 0; i < 10; i++ {
		if got := Recompute(inv3(), completed); got != first {
			t.Fatalf("recompute not idempotent: %+v vs %+v", got, first)
		}
	}
}

func TestRecompute_EmptyCourse(t *testing.T) {
	sum := Recompute(nil, set("stray"))
	if sum.Percentage != 0 || sum.ShouldComplete {
		t.Fatalf("zero-step course must stay at 0%%: %+v", sum)
	}
}

func TestRecompute_IgnoresForeignIDs(t *testing.T) {
	// Completed ids outside the inventory never count toward progress.
	sum := Recompute(inv3(), set("other-course-item", "qz-unknown"))
	if sum.Percentage != 0 {
		t.Fatalf("percentage = %d, want 0", sum.Percentage)
	}
}

func TestRecompute_CapsAt100(t *testing.T) {
	inv := []course.ContentItem{{ID: "only", Type: course.ContentText}}
	sum := Recompute(inv, set("only", "extra"))
	if sum.Percentage != 100 {
		t.Fatalf("percentage = %d, want 100", sum.Percentage)
	}
}
