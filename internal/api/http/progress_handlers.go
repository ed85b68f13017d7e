package http

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pathwise-lms/pathwise/internal/events"
	"github.com/pathwise-lms/pathwise/internal/progress"
	"github.com/pathwise-lms/pathwise/internal/rbac"
)

// MarkContentCompleteHandler records a content completion for the
// authenticated student and returns the refreshed enrollment.
func MarkContentCompleteHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		courseID := chi.URLParam(r, "courseID")
		contentID := chi.URLParam(r, "contentID")

		rec, err := svc.MarkContentComplete(r.Context(), sub, courseID, contentID)
		if err != nil {
			writeErr(w, err)
			return
		}
		enr, err := svc.Progress(r.Context(), sub, courseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"record":     rec,
			"enrollment": enr,
		})
	}
}

// GetProgressHandler returns the caller's enrollment projection, or any
// student's for roles with progress:view-all.
func GetProgressHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		if uid := r.URL.Query().Get("user_id"); uid != "" && rbac.RoleFromContext(r.Context()) != "student" {
			userID = uid
		}
		enr, err := svc.Progress(r.Context(), userID, chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, enr)
	}
}

func LockedContentHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := svc.LockedContentIDs(r.Context(), rbac.SubjectFromContext(r.Context()), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"locked": ids})
	}
}

// ResetProgressHandler clears the caller's progress for the course.
// Instructors and admins may reset any student via ?user_id=.
func ResetProgressHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.SubjectFromContext(r.Context())
		if uid := r.URL.Query().Get("user_id"); uid != "" && rbac.RoleFromContext(r.Context()) != "student" {
			userID = uid
		}
		enr, err := svc.Reset(r.Context(), userID, chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, enr)
	}
}

// ForceCompleteHandler is the escape hatch: the enrollment goes to
// 100% completed regardless of outstanding steps. Students force their
// own enrollment; instructors and admins may name any student in the
// body.
func ForceCompleteHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req) // body optional

		userID := rbac.SubjectFromContext(r.Context())
		if req.UserID != "" && rbac.RoleFromContext(r.Context()) != "student" {
			userID = req.UserID
		}
		enr, err := svc.ForceComplete(r.Context(), userID, chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, enr)
	}
}

// CourseStudentsHandler is the instructor dashboard: every enrollment
// with its derived activity classification.
func CourseStudentsHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.CourseStudents(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// EventsHandler lists domain events newest-first, optionally filtered
// by the userID|courseID key.
func EventsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := events.List(r.Context(), db, r.URL.Query().Get("key"), queryInt(r, "limit", 100, 500))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
