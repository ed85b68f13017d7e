package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pathwise-lms/pathwise/internal/course"
	"github.com/pathwise-lms/pathwise/internal/events"
)

/* ---------------- In-memory fakes satisfying progress.Store & progress.Inventory ---------------- */

type fakeStore struct {
	enrollments map[string]Enrollment          // userID|courseID
	completed   map[string]map[string]struct{} // userID|courseID -> item ids
	events      []events.Event
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		enrollments: map[string]Enrollment{},
		completed:   map[string]map[string]struct{}{},
	}
}

func ekey(userID, courseID string) string { return userID + "|" + courseID }

func (s *fakeStore) Enroll(_ context.Context, userID, courseID string, now int64) error {
	k := ekey(userID, courseID)
	if _, ok := s.enrollments[k]; ok {
		return nil
	}
	s.enrollments[k] = Enrollment{
		UserID: userID, CourseID: courseID, Status: StatusActive,
		EnrolledAt: now, LastActivity: now,
	}
	return nil
}

func (s *fakeStore) GetEnrollment(_ context.Context, userID, courseID string) (Enrollment, error) {
	e, ok := s.enrollments[ekey(userID, courseID)]
	if !ok {
		return Enrollment{}, ErrNotEnrolled
	}
	return e, nil
}

func (s *fakeStore) ListEnrollments(_ context.Context, courseID string) ([]Enrollment, error) {
	out := []Enrollment{}
	for _, e := range s.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) CompletedSet(_ context.Context, userID, courseID string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for id := range s.completed[ekey(userID, courseID)] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *fakeStore) ApplyCompletion(_ context.Context, userID, courseID string, steps []Step, pct int, status string, now int64, evs []events.Event) error {
	k := ekey(userID, courseID)
	e, ok := s.enrollments[k]
	if !ok {
		return ErrNotEnrolled
	}
	if s.completed[k] == nil {
		s.completed[k] = map[string]struct{}{}
	}
	for _, st := range steps {
		s.completed[k][st.ItemID] = struct{}{}
	}
	e.ProgressPct = pct
	e.Status = status
	e.LastActivity = now
	s.enrollments[k] = e
	s.events = append(s.events, evs...)
	return nil
}

func (s *fakeStore) ClearProgress(_ context.Context, userID, courseID string, now int64, evs []events.Event) error {
	k := ekey(userID, courseID)
	e, ok := s.enrollments[k]
	if !ok {
		return ErrNotEnrolled
	}
	delete(s.completed, k)
	e.ProgressPct = 0
	e.Status = StatusActive
	e.LastActivity = now
	s.enrollments[k] = e
	s.events = append(s.events, evs...)
	return nil
}

type fakeInventory struct {
	items []course.ContentItem
}

func (f *fakeInventory) Inventory(_ context.Context, courseID string) ([]course.ContentItem, error) {
	out := []course.ContentItem{}
	for _, ci := range f.items {
		if ci.CourseID == courseID {
			out = append(out, ci)
		}
	}
	return out, nil
}

func (f *fakeInventory) GetContent(_ context.Context, id string) (course.ContentItem, error) {
	for _, ci := range f.items {
		if ci.ID == id {
			return ci, nil
		}
	}
	return course.ContentItem{}, course.ErrNotFound
}

/* ------------------------------------------ Tests ------------------------------------------ */

func seedCourse(t *testing.T) (*fakeStore, *Service) {
	t.Helper()
	st := newFakeStore()
	inv := &fakeInventory{items: []course.ContentItem{
		{ID: "c1", CourseID: "crs", Type: course.ContentText, OrderIndex: 0},
		{ID: "c2", CourseID: "crs", Type: course.ContentVideo, OrderIndex: 1, QuizID: "qz2"},
		{ID: "c3", CourseID: "crs", Type: course.ContentText, OrderIndex: 2},
		{ID: "x1", CourseID: "other", Type: course.ContentText, OrderIndex: 0},
	}}
	svc := NewService(st, inv)
	base := time.Unix(1_700_000_000, 0)
	svc.now = func() time.Time { return base }
	if err := svc.Enroll(context.Background(), "stu", "crs"); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	return st, svc
}

func TestMarkContentComplete_RecomputesInline(t *testing.T) {
	st, svc := seedCourse(t)
	ctx := context.Background()

	rec, err := svc.MarkContentComplete(ctx, "stu", "crs", "c1")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if rec.ItemID != "c1" || rec.Kind != KindContent {
		t.Fatalf("record = %+v", rec)
	}
	e := st.enrollments[ekey("stu", "crs")]
	if e.ProgressPct != 25 || e.Status != StatusActive {
		t.Fatalf("enrollment = %+v, want 25%% active", e)
	}

	// Course with 4 steps: c1, c2, qz2, c3.
	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "c2"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if got := st.enrollments[ekey("stu", "crs")].ProgressPct; got != 50 {
		t.Fatalf("pct = %d, want 50", got)
	}
}

func TestMarkContentComplete_Idempotent(t *testing.T) {
	st, svc := seedCourse(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "c1"); err != nil {
			t.Fatalf("mark #%d: %v", i, err)
		}
	}
	if got := st.enrollments[ekey("stu", "crs")].ProgressPct; got != 25 {
		t.Fatalf("pct = %d, want 25 (no double counting)", got)
	}
	// Only the first call is a state change worth logging.
	n := 0
	for _, e := range st.events {
		if e.Type == events.TypeContentCompleted {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("content.completed events = %d, want 1", n)
	}
}

func TestMarkContentComplete_Errors(t *testing.T) {
	_, svc := seedCourse(t)
	ctx := context.Background()

	if _, err := svc.MarkContentComplete(ctx, "ghost", "crs", "c1"); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("err = %v, want ErrNotEnrolled", err)
	}
	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "missing"); !errors.Is(err, course.ErrNotFound) {
		t.Fatalf("err = %v, want course.ErrNotFound", err)
	}
	// Content from another course is not found in this one.
	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "x1"); !errors.Is(err, course.ErrNotFound) {
		t.Fatalf("err = %v, want course.ErrNotFound", err)
	}
}

func TestMarkContentComplete_RejectsLocked(t *testing.T) {
	st, svc := seedCourse(t)
	ctx := context.Background()

	// c2 is gated on c1, which is still outstanding.
	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "c2"); !errors.Is(err, ErrContentLocked) {
		t.Fatalf("err = %v, want ErrContentLocked", err)
	}
	if got := st.enrollments[ekey("stu", "crs")].ProgressPct; got != 0 {
		t.Fatalf("pct = %d, want 0 after rejected completion", got)
	}

	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "c1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "c2"); err != nil {
		t.Fatalf("mark after unlock: %v", err)
	}
}

func TestEventsCarryTransitionTimestamp(t *testing.T) {
	st, svc := seedCourse(t)
	ctx := context.Background()

	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "c1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := svc.Reset(ctx, "stu", "crs"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(st.events) == 0 {
		t.Fatalf("expected events")
	}
	// Same clock as last_activity: the event describes the transition,
	// not the write.
	for i, ev := range st.events {
		if ev.CreatedAt != 1_700_000_000 {
			t.Fatalf("event %d created_at = %d, want 1700000000", i, ev.CreatedAt)
		}
	}
}

func TestQuizPassed_CompletesBothSlots(t *testing.T) {
	st, svc := seedCourse(t)
	ctx := context.Background()

	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "c1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := svc.QuizPassed(ctx, "stu", "crs", "qz2", "c2"); err != nil {
		t.Fatalf("quiz passed: %v", err)
	}
	e := st.enrollments[ekey("stu", "crs")]
	if e.ProgressPct != 75 || e.Status != StatusActive {
		t.Fatalf("enrollment = %+v, want 75%% active", e)
	}

	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "c3"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	e = st.enrollments[ekey("stu", "crs")]
	if e.ProgressPct != 100 || e.Status != StatusCompleted {
		t.Fatalf("enrollment = %+v, want 100%% completed", e)
	}

	var sawCompleted bool
	for _, ev := range st.events {
		if ev.Type == events.TypeCourseCompleted {
			sawCompleted = true
		}
	}
	if !sawCompleted {
		t.Fatalf("expected a course.completed event")
	}
}

func TestLockedContentIDs(t *testing.T) {
	_, svc := seedCourse(t)
	ctx := context.Background()

	ids, err := svc.LockedContentIDs(ctx, "stu", "crs")
	if err != nil {
		t.Fatalf("locked: %v", err)
	}
	if len(ids) != 2 || ids[0] != "c2" || ids[1] != "c3" {
		t.Fatalf("locked = %v, want [c2 c3]", ids)
	}

	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "c1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	ids, _ = svc.LockedContentIDs(ctx, "stu", "crs")
	if len(ids) != 1 || ids[0] != "c3" {
		t.Fatalf("locked = %v, want [c3]", ids)
	}

	if _, err := svc.LockedContentIDs(ctx, "ghost", "crs"); !errors.Is(err, ErrNotEnrolled) {
		t.Fatalf("err = %v, want ErrNotEnrolled", err)
	}
}

func TestResetRoundTrip(t *testing.T) {
	st, svc := seedCourse(t)
	ctx := context.Background()

	_, _ = svc.MarkContentComplete(ctx, "stu", "crs", "c1")
	_, _ = svc.MarkContentComplete(ctx, "stu", "crs", "c2")

	e, err := svc.Reset(ctx, "stu", "crs")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if e.ProgressPct != 0 || e.Status != StatusActive {
		t.Fatalf("after reset = %+v, want 0%% active", e)
	}
	got, _ := svc.Progress(ctx, "stu", "crs")
	if got.ProgressPct != 0 || got.Status != StatusActive {
		t.Fatalf("progress after reset = %+v", got)
	}
	if len(st.completed[ekey("stu", "crs")]) != 0 {
		t.Fatalf("progress rows must be cleared on reset")
	}

	// Locks are back to the initial state.
	ids, _ := svc.LockedContentIDs(ctx, "stu", "crs")
	if len(ids) != 2 {
		t.Fatalf("locked after reset = %v", ids)
	}
}

func TestForceComplete(t *testing.T) {
	st, svc := seedCourse(t)
	ctx := context.Background()

	e, err := svc.ForceComplete(ctx, "stu", "crs")
	if err != nil {
		t.Fatalf("force complete: %v", err)
	}
	if e.ProgressPct != 100 || e.Status != StatusCompleted {
		t.Fatalf("forced = %+v, want 100%% completed", e)
	}

	// Idempotent: repeating neither errors nor logs another event.
	if _, err := svc.ForceComplete(ctx, "stu", "crs"); err != nil {
		t.Fatalf("second force complete: %v", err)
	}
	n := 0
	for _, ev := range st.events {
		if ev.Type == events.TypeCourseCompleted {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("course.completed events = %d, want 1", n)
	}

	// A later completion event must not drag a forced enrollment back.
	if _, err := svc.MarkContentComplete(ctx, "stu", "crs", "c1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	got := st.enrollments[ekey("stu", "crs")]
	if got.ProgressPct != 100 || got.Status != StatusCompleted {
		t.Fatalf("enrollment regressed: %+v", got)
	}
}

func TestClassify(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fresh := Enrollment{LastActivity: now.Add(-time.Hour).Unix(), ProgressPct: 10}
	if got := fresh.Classify(now); got != ClassActive {
		t.Fatalf("classify = %s, want active", got)
	}
	stale := Enrollment{LastActivity: now.Add(-8 * 24 * time.Hour).Unix(), ProgressPct: 10}
	if got := stale.Classify(now); got != ClassAtRisk {
		t.Fatalf("classify = %s, want at-risk", got)
	}
	done := Enrollment{LastActivity: now.Add(-30 * 24 * time.Hour).Unix(), ProgressPct: 80}
	if got := done.Classify(now); got != ClassInactive {
		t.Fatalf("classify = %s, want inactive", got)
	}
}
