package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pathwise-lms/pathwise/internal/course"
	"github.com/pathwise-lms/pathwise/internal/progress"
	"github.com/pathwise-lms/pathwise/internal/quiz"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeValid decodes the body into dst and runs struct validation.
// Returns false after writing the error response.
func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "validation failed", "fields": fields,
			})
			return false
		}
		http.Error(w, "bad request", http.StatusBadRequest)
		return false
	}
	return true
}

// errStatus maps domain errors onto HTTP statuses. Enrollment gating is
// a permission problem, not a missing resource, hence 403.
func errStatus(err error) int {
	switch {
	case errors.Is(err, course.ErrNotFound), errors.Is(err, quiz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, progress.ErrNotEnrolled), errors.Is(err, progress.ErrContentLocked):
		return http.StatusForbidden
	case errors.Is(err, quiz.ErrQuizInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeErr(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), errStatus(err))
}
