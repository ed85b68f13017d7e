package progress

import "github.com/pathwise-lms/pathwise/internal/course"

// IsLocked decides at read time whether a content item is accessible.
// The first item in total course order is never locked; any other item
// is locked while its immediate predecessor is incomplete. A quiz item
// with a linked prerequisite video is instead locked until that video is
// complete, which may differ from its list predecessor. Lock state is
// never persisted; the same inventory and completed-set always yield the
// same answer.
func IsLocked(item course.ContentItem, inventory []course.ContentItem, completed map[string]struct{}) bool {
	if item.Type == course.ContentQuiz && item.PrereqContentID != "" {
		_, done := completed[item.PrereqContentID]
		return !done
	}
	for i, ci := range inventory {
		if ci.ID != item.ID {
			continue
		}
		if i == 0 {
			return false
		}
		_, done := completed[inventory[i-1].ID]
		return !done
	}
	// Item not part of the course order: nothing gates it.
	return false
}

// LockedIDs projects the locked subset of a course's inventory, in
// course order.
func LockedIDs(inventory []course.ContentItem, completed map[string]struct{}) []string {
	out := []string{}
	for _, ci := range inventory {
		if IsLocked(ci, inventory, completed) {
			out = append(out, ci.ID)
		}
	}
	return out
}
