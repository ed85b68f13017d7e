package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pathwise-lms/pathwise/internal/course"
	"github.com/pathwise-lms/pathwise/internal/progress"
	"github.com/pathwise-lms/pathwise/internal/rbac"
)

// Handlers only — routes remain in main.go

func CreateCourseHandler(store course.Store, now func() int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title" validate:"required,min=1,max=200"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		c := course.Course{
			ID:        uuid.NewString(),
			Title:     req.Title,
			CreatedBy: rbac.SubjectFromContext(r.Context()),
			CreatedAt: now(),
		}
		if err := store.CreateCourse(r.Context(), c); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// ListCoursesHandler scopes the listing by role: students see their
// enrollments, instructors their own courses, admins everything.
func ListCoursesHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := course.ListOpts{
			Limit:  queryInt(r, "limit", 50, 200),
			Offset: queryInt(r, "offset", 0, 1<<30),
		}
		sub := rbac.SubjectFromContext(r.Context())
		switch rbac.RoleFromContext(r.Context()) {
		case "student":
			opts.StudentID = sub
		case "instructor":
			opts.InstructorID = sub
		}
		out, err := store.ListCourses(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetCourseHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func AddModuleHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title      string `json:"title" validate:"required,min=1,max=200"`
			OrderIndex int    `json:"order_index" validate:"gte=0"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		m := course.Module{
			ID:         uuid.NewString(),
			CourseID:   chi.URLParam(r, "courseID"),
			Title:      req.Title,
			OrderIndex: req.OrderIndex,
		}
		if err := store.AddModule(r.Context(), m); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func AddContentHandler(store course.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ModuleID        string `json:"module_id" validate:"required"`
			Type            string `json:"type" validate:"required,oneof=video text quiz"`
			Title           string `json:"title" validate:"required,min=1,max=200"`
			OrderIndex      int    `json:"order_index" validate:"gte=0"`
			QuizID          string `json:"quiz_id"`
			PrereqContentID string `json:"prereq_content_id"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		ci := course.ContentItem{
			ID:              uuid.NewString(),
			ModuleID:        req.ModuleID,
			CourseID:        chi.URLParam(r, "courseID"),
			Type:            req.Type,
			Title:           req.Title,
			OrderIndex:      req.OrderIndex,
			QuizID:          req.QuizID,
			PrereqContentID: req.PrereqContentID,
		}
		if err := store.AddContent(r.Context(), ci); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, ci)
	}
}

// outlineItem is a content item annotated with the caller's lock state.
type outlineItem struct {
	course.ContentItem
	Locked bool `json:"locked"`
}

// CourseOutlineHandler returns the full ordered inventory. For students
// each item carries its lock state; instructors and admins see
// everything unlocked.
func CourseOutlineHandler(store course.Store, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		inv, err := store.Inventory(r.Context(), courseID)
		if err != nil {
			writeErr(w, err)
			return
		}

		locked := map[string]struct{}{}
		if rbac.RoleFromContext(r.Context()) == "student" {
			ids, err := prog.LockedContentIDs(r.Context(), rbac.SubjectFromContext(r.Context()), courseID)
			if err != nil {
				writeErr(w, err)
				return
			}
			for _, id := range ids {
				locked[id] = struct{}{}
			}
		}

		out := make([]outlineItem, 0, len(inv))
		for _, ci := range inv {
			_, isLocked := locked[ci.ID]
			if isLocked {
				// Students see that a locked item exists but not its quiz link.
				ci.QuizID = ""
				ci.MaterialKey = ""
			}
			out = append(out, outlineItem{ContentItem: ci, Locked: isLocked})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetContentHandler(store course.Store, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ci, err := store.GetContent(r.Context(), chi.URLParam(r, "contentID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := studentLockCheck(r, prog, ci); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ci)
	}
}

// studentLockCheck blocks direct fetches of items the outline hides
// from the student: content is only visible once its prerequisite is
// complete. Instructors and admins see everything.
func studentLockCheck(r *http.Request, prog *progress.Service, ci course.ContentItem) error {
	if rbac.RoleFromContext(r.Context()) != "student" {
		return nil
	}
	ids, err := prog.LockedContentIDs(r.Context(), rbac.SubjectFromContext(r.Context()), ci.CourseID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == ci.ID {
			return progress.ErrContentLocked
		}
	}
	return nil
}

// EnrollSelfHandler enrolls the authenticated student. Idempotent.
func EnrollSelfHandler(courses course.Store, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if _, err := courses.GetCourse(r.Context(), courseID); err != nil {
			writeErr(w, err)
			return
		}
		sub := rbac.SubjectFromContext(r.Context())
		if err := prog.Enroll(r.Context(), sub, courseID); err != nil {
			writeErr(w, err)
			return
		}
		enr, err := prog.Progress(r.Context(), sub, courseID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, enr)
	}
}

// EnrollStudentsHandler lets an instructor enroll a batch of students.
func EnrollStudentsHandler(courses course.Store, prog *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		if _, err := courses.GetCourse(r.Context(), courseID); err != nil {
			writeErr(w, err)
			return
		}
		var req struct {
			UserIDs []string `json:"user_ids" validate:"required,min=1,dive,required"`
		}
		if !decodeValid(w, r, &req) {
			return
		}
		for _, uid := range req.UserIDs {
			if err := prog.Enroll(r.Context(), uid, courseID); err != nil {
				writeErr(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]int{"enrolled": len(req.UserIDs)})
	}
}

func queryInt(r *http.Request, name string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
