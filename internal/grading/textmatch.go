package grading

import "strings"

// textMatch compares a submitted fill-blank answer against the canonical
// one: leading/trailing whitespace is ignored and the comparison is
// case-folded. An empty canonical answer never matches.
func textMatch(got, want string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(got), want)
}
