package progress

import "time"

// Enrollment states.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Derived student classifications for instructor dashboards.
const (
	ClassActive   = "active"
	ClassAtRisk   = "at-risk"
	ClassInactive = "inactive"
)

// Step kinds recorded in the progress table.
const (
	KindContent = "content"
	KindQuiz    = "quiz"
)

const atRiskBelowPct = 30

// Enrollment is the relationship between one student and one course.
// Percentage and status are a cached projection of the progress rows,
// rewritten in the same transaction that inserts them.
type Enrollment struct {
	UserID       string `json:"user_id"`
	CourseID     string `json:"course_id"`
	Status       string `json:"status"`
	ProgressPct  int    `json:"progress_pct"`
	EnrolledAt   int64  `json:"enrolled_at,omitempty"`
	LastActivity int64  `json:"last_activity,omitempty"`
}

// Classify derives the activity bucket: active when last touched within
// seven days, otherwise at-risk while progress is under 30%, otherwise
// inactive. Never stored.
func (e Enrollment) Classify(now time.Time) string {
	if e.LastActivity > 0 && now.Sub(time.Unix(e.LastActivity, 0)) <= 7*24*time.Hour {
		return ClassActive
	}
	if e.ProgressPct < atRiskBelowPct {
		return ClassAtRisk
	}
	return ClassInactive
}

// Step is one completable unit: a content item or a linked quiz's
// separate slot.
type Step struct {
	ItemID string
	Kind   string // content|quiz
}

// Record is one append-only progress row.
type Record struct {
	UserID      string `json:"user_id"`
	CourseID    string `json:"course_id"`
	ItemID      string `json:"item_id"`
	Kind        string `json:"kind"`
	CompletedAt int64  `json:"completed_at"`
}
