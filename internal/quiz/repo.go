package quiz

import (
	"context"
	"errors"
)

var (
	ErrNotFound  = errors.New("quiz not found")
	ErrQuizInUse = errors.New("quiz is referenced by content")
)

type AttemptListOpts struct {
	QuizID   string
	CourseID string
	UserID   string
	Limit    int
	Offset   int
}

type Store interface {
	PutQuiz(ctx context.Context, q Quiz) error
	// GetQuiz returns the full quiz including answer keys.
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	DeleteQuiz(ctx context.Context, id string) error

	// CreateAttempt assigns the attempt number (prior count + 1, read and
	// inserted in one transaction) and persists the attempt.
	CreateAttempt(ctx context.Context, a Attempt) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// BestAttempt returns the student's highest-scoring attempt for a
	// quiz; ties break toward the earliest submission.
	BestAttempt(ctx context.Context, quizID, userID string) (Attempt, error)
}
