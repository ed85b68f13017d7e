package progress

import (
	"math"

	"github.com/pathwise-lms/pathwise/internal/course"
)

// Summary is the outcome of a progress recompute.
type Summary struct {
	Percentage     int
	ShouldComplete bool
}

// Recompute derives the enrollment percentage from the course inventory
// and the authoritative completed-item set. Every content item counts as
// one step; an item with a linked quiz contributes a second,
// separately-completable step keyed by the quiz id. Recomputing from the
// set (never incrementing a counter) makes the operation idempotent and
// safe under racing completion events.
func Recompute(inventory []course.ContentItem, completed map[string]struct{}) Summary {
	total, done := 0, 0
	for _, ci := range inventory {
		total++
		if _, ok := completed[ci.ID]; ok {
			done++
		}
		if ci.QuizID != "" {
			total++
			if _, ok := completed[ci.QuizID]; ok {
				done++
			}
		}
	}
	if total == 0 {
		// A course with no content cannot be progressed.
		return Summary{}
	}
	pct := int(math.Round(float64(done) / float64(total) * 100))
	if pct > 100 {
		pct = 100
	}
	return Summary{Percentage: pct, ShouldComplete: pct == 100}
}
