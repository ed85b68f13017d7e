package progress

import (
	"context"
	"errors"

	"github.com/pathwise-lms/pathwise/internal/events"
)

// ErrNotEnrolled maps to Forbidden at the transport boundary: the
// student has no enrollment for the course being acted on.
var ErrNotEnrolled = errors.New("not enrolled")

// ErrContentLocked rejects completion of content whose prerequisite is
// still outstanding.
var ErrContentLocked = errors.New("content locked")

type Store interface {
	// Enroll is an idempotent set-insert.
	Enroll(ctx context.Context, userID, courseID string, now int64) error
	GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
	ListEnrollments(ctx context.Context, courseID string) ([]Enrollment, error)

	// CompletedSet reads the authoritative completed-item ids (content
	// ids and quiz slot ids) for one student and course.
	CompletedSet(ctx context.Context, userID, courseID string) (map[string]struct{}, error)

	// ApplyCompletion inserts the progress rows (no-op for already
	// completed steps), rewrites the enrollment projection, and appends
	// the domain events, all in one transaction.
	ApplyCompletion(ctx context.Context, userID, courseID string, steps []Step, pct int, status string, now int64, evs []events.Event) error

	// ClearProgress deletes the student's progress rows for the course
	// and resets the enrollment projection, in one transaction. The only
	// path that ever deletes progress history.
	ClearProgress(ctx context.Context, userID, courseID string, now int64, evs []events.Event) error
}
