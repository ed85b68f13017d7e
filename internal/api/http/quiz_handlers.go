package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pathwise-lms/pathwise/internal/grading"
	"github.com/pathwise-lms/pathwise/internal/quiz"
	"github.com/pathwise-lms/pathwise/internal/rbac"
)

func CreateQuizHandler(store quiz.Store, now func() int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CourseID     string          `json:"course_id" validate:"required"`
			ContentID    string          `json:"content_id"`
			Title        string          `json:"title" validate:"required,min=1,max=200"`
			PassingPct   int             `json:"passing_pct" validate:"gte=0,lte=100"`
			TimeLimitSec int             `json:"time_limit_sec" validate:"gte=0"`
			Questions    []quiz.Question `json:"questions" validate:"required,min=1"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		q := quiz.Quiz{
			ID:           uuid.NewString(),
			CourseID:     req.CourseID,
			ContentID:    req.ContentID,
			Title:        req.Title,
			PassingPct:   req.PassingPct,
			TimeLimitSec: req.TimeLimitSec,
			Questions:    req.Questions,
			CreatedBy:    rbac.SubjectFromContext(r.Context()),
			CreatedAt:    now(),
		}
		for i := range q.Questions {
			if q.Questions[i].ID == "" {
				q.Questions[i].ID = uuid.NewString()
			}
		}
		if err := q.Normalize(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutQuiz(r.Context(), q); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// GetQuizHandler serves the quiz. Students get it with the answer key
// stripped; graders never leave the server for them.
func GetQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if rbac.RoleFromContext(r.Context()) == "student" {
			q.StripAnswers()
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func DeleteQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SubmitAttemptHandler grades a submission and returns the immutable
// attempt record, including the per-question breakdown.
func SubmitAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Answers      map[string]grading.Response `json:"answers" validate:"required"`
			TimeSpentSec int                         `json:"time_spent_sec" validate:"gte=0"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		sub := rbac.SubjectFromContext(r.Context())
		a, err := svc.Submit(r.Context(), sub, chi.URLParam(r, "quizID"), req.Answers, req.TimeSpentSec)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// ListAttemptsHandler returns attempt history. Students are pinned to
// their own attempts regardless of query filters.
func ListAttemptsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := quiz.AttemptListOpts{
			QuizID:   r.URL.Query().Get("quiz_id"),
			CourseID: r.URL.Query().Get("course_id"),
			UserID:   r.URL.Query().Get("user_id"),
			Limit:    queryInt(r, "limit", 50, 200),
			Offset:   queryInt(r, "offset", 0, 1<<30),
		}
		if rbac.RoleFromContext(r.Context()) == "student" {
			opts.UserID = rbac.SubjectFromContext(r.Context())
		}
		out, err := store.ListAttempts(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := store.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if rbac.RoleFromContext(r.Context()) == "student" && a.UserID != rbac.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// BestAttemptHandler returns the student's highest score for a quiz;
// ties break toward the earliest submission.
func BestAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		if rbac.RoleFromContext(r.Context()) != "student" {
			if uid := r.URL.Query().Get("user_id"); uid != "" {
				userID = uid
			}
		}
		a, err := store.BestAttempt(r.Context(), chi.URLParam(r, "quizID"), userID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
