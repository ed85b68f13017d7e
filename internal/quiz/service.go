package quiz

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pathwise-lms/pathwise/internal/grading"
)

// ProgressSink is the progress service as seen from here: it gates
// submissions on enrollment and receives the pass event so progress and
// enrollment are updated in one place (and one transaction).
type ProgressSink interface {
	Enrolled(ctx context.Context, userID, courseID string) error
	QuizPassed(ctx context.Context, userID, courseID, quizID, contentID string) error
}

type Service struct {
	store    Store
	grader   grading.Grader
	progress ProgressSink
	now      func() time.Time
}

func NewService(store Store, grader grading.Grader, progress ProgressSink) *Service {
	return &Service{store: store, grader: grader, progress: progress, now: time.Now}
}

// Submit grades a student's responses against every question of the
// quiz, persists a new immutable attempt, and on pass notifies the
// progress sink. Malformed or missing answers degrade to incorrect;
// only a missing quiz is a caller-visible error.
func (s *Service) Submit(ctx context.Context, userID, quizID string, responses map[string]grading.Response, timeSpentSec int) (Attempt, error) {
	qz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Attempt{}, err
	}
	// Enrollment is checked before anything is graded or persisted, so a
	// rejected submission leaves no attempt behind.
	if s.progress != nil {
		if err := s.progress.Enrolled(ctx, userID, qz.CourseID); err != nil {
			return Attempt{}, fmt.Errorf("check enrollment: %w", err)
		}
	}

	earned, total := 0, 0
	answers := make([]AttemptAnswer, 0, len(qz.Questions))
	for _, qu := range qz.Questions {
		gq := qu.GradingView()
		total += gq.Points

		var resp *grading.Response
		ans := AttemptAnswer{QuestionID: qu.ID}
		if r, ok := responses[qu.ID]; ok {
			resp = &r
			ans.Selected = r.Selected
			ans.Text = r.Text
		}
		res := s.grader.Grade(gq, resp)
		ans.Correct = res.Correct
		ans.Points = res.Points
		earned += res.Points
		answers = append(answers, ans)
	}

	score := 0
	if total > 0 {
		score = int(math.Round(float64(earned) / float64(total) * 100))
	}
	passing := qz.PassingPct
	if passing <= 0 {
		passing = DefaultPassingPct
	}

	a := Attempt{
		ID:           uuid.NewString(),
		QuizID:       qz.ID,
		CourseID:     qz.CourseID,
		UserID:       userID,
		Answers:      answers,
		Score:        score,
		EarnedPoints: earned,
		TotalPoints:  total,
		Passed:       score >= passing,
		TimeSpentSec: timeSpentSec,
		CreatedAt:    s.now().Unix(),
	}
	a, err = s.store.CreateAttempt(ctx, a)
	if err != nil {
		return Attempt{}, err
	}

	if a.Passed && s.progress != nil {
		if err := s.progress.QuizPassed(ctx, userID, qz.CourseID, qz.ID, qz.ContentID); err != nil {
			return a, fmt.Errorf("record quiz pass: %w", err)
		}
	}
	return a, nil
}
