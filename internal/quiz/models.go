package quiz

import (
	"errors"
	"fmt"

	"github.com/pathwise-lms/pathwise/internal/grading"
)

const DefaultPassingPct = 60

type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct,omitempty"`
}

type Question struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"` // mcq-single, mcq-multiple, true-false, fill-blank
	Text    string   `json:"text"`
	Points  int      `json:"points"`
	Options []Option `json:"options,omitempty"`
	Answer  string   `json:"answer,omitempty"` // canonical answer (fill-blank)
}

type Quiz struct {
	ID           string     `json:"id"`
	CourseID     string     `json:"course_id"`
	ContentID    string     `json:"content_id,omitempty"` // linked content item
	Title        string     `json:"title"`
	PassingPct   int        `json:"passing_pct"`
	TimeLimitSec int        `json:"time_limit_sec,omitempty"`
	Questions    []Question `json:"questions"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    int64      `json:"created_at,omitempty"`
}

// AttemptAnswer is one graded per-question response inside an attempt.
type AttemptAnswer struct {
	QuestionID string `json:"question_id"`
	Selected   []int  `json:"selected,omitempty"`
	Text       string `json:"text,omitempty"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
}

// Attempt is one graded submission. Immutable after creation: every
// submission creates a new record, never overwrites a prior one.
type Attempt struct {
	ID            string          `json:"id"`
	QuizID        string          `json:"quiz_id"`
	CourseID      string          `json:"course_id"`
	UserID        string          `json:"user_id"`
	Answers       []AttemptAnswer `json:"answers"`
	Score         int             `json:"score"` // 0-100, rounded
	EarnedPoints  int             `json:"earned_points"`
	TotalPoints   int             `json:"total_points"`
	Passed        bool            `json:"passed"`
	AttemptNumber int             `json:"attempt_number"` // 1-based, per student+quiz
	TimeSpentSec  int             `json:"time_spent_sec"`
	CreatedAt     int64           `json:"created_at"`
}

// Normalize applies authoring defaults and checks the question
// invariants: choice questions need at least two options and one flagged
// correct; fill-blank needs a canonical answer.
func (q *Quiz) Normalize() error {
	if q.PassingPct <= 0 {
		q.PassingPct = DefaultPassingPct
	}
	if q.PassingPct > 100 {
		return fmt.Errorf("passing_pct %d out of range", q.PassingPct)
	}
	if len(q.Questions) == 0 {
		return errors.New("quiz needs at least one question")
	}
	for i := range q.Questions {
		if err := normalizeQuestion(&q.Questions[i]); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}

func normalizeQuestion(qu *Question) error {
	if qu.Points <= 0 {
		qu.Points = 1
	}
	switch qu.Type {
	case grading.TypeMCQSingle, grading.TypeMCQMultiple, grading.TypeTrueFalse:
		if len(qu.Options) < 2 {
			return errors.New("choice question needs at least two options")
		}
		correct := 0
		for _, o := range qu.Options {
			if o.Correct {
				correct++
			}
		}
		if correct == 0 {
			return errors.New("choice question needs a correct option")
		}
		if qu.Type != grading.TypeMCQMultiple && correct > 1 {
			return errors.New("single-answer question has multiple correct options")
		}
	case grading.TypeFillBlank:
		if qu.Answer == "" {
			return errors.New("fill-blank question needs a canonical answer")
		}
	default:
		return fmt.Errorf("unknown question type %q", qu.Type)
	}
	return nil
}

// GradingView projects a question into the grader's minimal shape.
func (qu Question) GradingView() grading.Q {
	pts := qu.Points
	if pts <= 0 {
		pts = 1
	}
	gq := grading.Q{
		Type:    qu.Type,
		Points:  pts,
		Choices: len(qu.Options),
		Answer:  qu.Answer,
	}
	for i, o := range qu.Options {
		if o.Correct {
			gq.Correct = append(gq.Correct, i)
		}
	}
	return gq
}

// StripAnswers removes the answer key before serving a quiz to students.
func (q *Quiz) StripAnswers() {
	for i := range q.Questions {
		q.Questions[i].Answer = ""
		for j := range q.Questions[i].Options {
			q.Questions[i].Options[j].Correct = false
		}
	}
}
