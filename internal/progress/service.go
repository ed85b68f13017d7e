package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/pathwise-lms/pathwise/internal/course"
	"github.com/pathwise-lms/pathwise/internal/events"
)

// Inventory is the slice of the course store the progression engine
// reads: the ordered content listing and single-item lookups.
type Inventory interface {
	Inventory(ctx context.Context, courseID string) ([]course.ContentItem, error)
	GetContent(ctx context.Context, id string) (course.ContentItem, error)
}

// Service is the enrollment state machine: it records completion
// events, recomputes the percentage from the authoritative completed
// set, and transitions enrollment status. Every recompute happens
// inline with the request that caused it; there is no scheduler.
type Service struct {
	store     Store
	inventory Inventory
	now       func() time.Time
}

func NewService(store Store, inv Inventory) *Service {
	return &Service{store: store, inventory: inv, now: time.Now}
}

func (s *Service) Enroll(ctx context.Context, userID, courseID string) error {
	return s.store.Enroll(ctx, userID, courseID, s.now().Unix())
}

// Enrolled reports whether the student has an enrollment for the
// course; ErrNotEnrolled otherwise. Used by the quiz service to gate
// submissions before grading.
func (s *Service) Enrolled(ctx context.Context, userID, courseID string) error {
	_, err := s.store.GetEnrollment(ctx, userID, courseID)
	return err
}

// MarkContentComplete records a content completion for an enrolled
// student. Re-marking completed content is a no-op set-insert; the
// recompute still runs and lastActivity still advances.
func (s *Service) MarkContentComplete(ctx context.Context, userID, courseID, contentID string) (Record, error) {
	ci, err := s.inventory.GetContent(ctx, contentID)
	if err != nil {
		return Record{}, err
	}
	if ci.CourseID != courseID {
		return Record{}, course.ErrNotFound
	}
	inv, err := s.inventory.Inventory(ctx, courseID)
	if err != nil {
		return Record{}, err
	}
	completed, err := s.store.CompletedSet(ctx, userID, courseID)
	if err != nil {
		return Record{}, err
	}
	if IsLocked(ci, inv, completed) {
		return Record{}, ErrContentLocked
	}
	now := s.now().Unix()
	if err := s.complete(ctx, userID, courseID, []Step{{ItemID: contentID, Kind: KindContent}}); err != nil {
		return Record{}, err
	}
	return Record{UserID: userID, CourseID: courseID, ItemID: contentID, Kind: KindContent, CompletedAt: now}, nil
}

// QuizPassed marks the quiz's own step and, when linked, its content
// item complete in one transactional update. Called by the quiz service
// after a passing attempt is persisted.
func (s *Service) QuizPassed(ctx context.Context, userID, courseID, quizID, contentID string) error {
	steps := []Step{{ItemID: quizID, Kind: KindQuiz}}
	if contentID != "" {
		steps = append(steps, Step{ItemID: contentID, Kind: KindContent})
	}
	return s.complete(ctx, userID, courseID, steps)
}

func (s *Service) complete(ctx context.Context, userID, courseID string, steps []Step) error {
	enr, err := s.store.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return err
	}
	inv, err := s.inventory.Inventory(ctx, courseID)
	if err != nil {
		return err
	}
	completed, err := s.store.CompletedSet(ctx, userID, courseID)
	if err != nil {
		return err
	}

	now := s.now().Unix()
	key := userID + "|" + courseID
	evs := []events.Event{}
	for _, st := range steps {
		if _, done := completed[st.ItemID]; done {
			continue
		}
		completed[st.ItemID] = struct{}{}
		typ := events.TypeContentCompleted
		if st.Kind == KindQuiz {
			typ = events.TypeQuizPassed
		}
		evs = append(evs, events.New(typ, key, now, map[string]string{
			"user_id": userID, "course_id": courseID, "item_id": st.ItemID,
		}))
	}

	sum := Recompute(inv, completed)
	// Percentage never decreases and completed never reverts outside an
	// explicit reset; a force-completed enrollment stays at 100.
	if sum.Percentage < enr.ProgressPct {
		sum.Percentage = enr.ProgressPct
	}
	status := StatusActive
	if sum.ShouldComplete || enr.Status == StatusCompleted {
		status = StatusCompleted
	}
	if status == StatusCompleted && enr.Status != StatusCompleted {
		evs = append(evs, events.New(events.TypeCourseCompleted, key, now, map[string]any{
			"user_id": userID, "course_id": courseID, "percentage": sum.Percentage,
		}))
	}
	return s.store.ApplyCompletion(ctx, userID, courseID, steps, sum.Percentage, status, now, evs)
}

// Progress returns the enrollment projection for the student.
func (s *Service) Progress(ctx context.Context, userID, courseID string) (Enrollment, error) {
	return s.store.GetEnrollment(ctx, userID, courseID)
}

// LockedContentIDs is the read-only lock projection used by content
// listing views.
func (s *Service) LockedContentIDs(ctx context.Context, userID, courseID string) ([]string, error) {
	if _, err := s.store.GetEnrollment(ctx, userID, courseID); err != nil {
		return nil, err
	}
	inv, err := s.inventory.Inventory(ctx, courseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.store.CompletedSet(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return LockedIDs(inv, completed), nil
}

// Reset clears all progress history for the enrollment and returns it
// to 0% active. Idempotent.
func (s *Service) Reset(ctx context.Context, userID, courseID string) (Enrollment, error) {
	enr, err := s.store.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	now := s.now().Unix()
	ev := events.New(events.TypeProgressReset, userID+"|"+courseID, now, map[string]string{
		"user_id": userID, "course_id": courseID,
	})
	if err := s.store.ClearProgress(ctx, userID, courseID, now, []events.Event{ev}); err != nil {
		return Enrollment{}, err
	}
	enr.Status = StatusActive
	enr.ProgressPct = 0
	enr.LastActivity = now
	return enr, nil
}

// ForceComplete is the escape hatch: 100% and completed regardless of
// actual progress. Idempotent.
func (s *Service) ForceComplete(ctx context.Context, userID, courseID string) (Enrollment, error) {
	enr, err := s.store.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	now := s.now().Unix()
	evs := []events.Event{}
	if enr.Status != StatusCompleted {
		evs = append(evs, events.New(events.TypeCourseCompleted, userID+"|"+courseID, now, map[string]any{
			"user_id": userID, "course_id": courseID, "forced": true,
		}))
	}
	if err := s.store.ApplyCompletion(ctx, userID, courseID, nil, 100, StatusCompleted, now, evs); err != nil {
		return Enrollment{}, err
	}
	enr.Status = StatusCompleted
	enr.ProgressPct = 100
	enr.LastActivity = now
	return enr, nil
}

// StudentProgress is one row of an instructor's course dashboard.
type StudentProgress struct {
	Enrollment
	Classification string `json:"classification"`
}

func (s *Service) CourseStudents(ctx context.Context, courseID string) ([]StudentProgress, error) {
	enrs, err := s.store.ListEnrollments(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	now := s.now()
	out := make([]StudentProgress, 0, len(enrs))
	for _, e := range enrs {
		out = append(out, StudentProgress{Enrollment: e, Classification: e.Classify(now)})
	}
	return out, nil
}
