package grading

import "testing"

func TestSingleChoice(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Type: TypeMCQSingle, Points: 2, Choices: 4, Correct: []int{2}}

	cases := []struct {
		name string
		resp *Response
		want bool
	}{
		{"correct index", &Response{Selected: []int{2}}, true},
		{"wrong index", &Response{Selected: []int{1}}, false},
		{"out of range", &Response{Selected: []int{7}}, false},
		{"negative index", &Response{Selected: []int{-1}}, false},
		{"multiple picks", &Response{Selected: []int{1, 2}}, false},
		{"empty picks", &Response{}, false},
		{"missing response", nil, false},
	}
	for _, tc := range cases {
		res := g.Grade(q, tc.resp)
		if res.Correct != tc.want {
			t.Errorf("%s: correct=%v, want %v", tc.name, res.Correct, tc.want)
		}
		if tc.want && res.Points != 2 {
			t.Errorf("%s: points=%d, want 2", tc.name, res.Points)
		}
		if !tc.want && res.Points != 0 {
			t.Errorf("%s: points=%d, want 0", tc.name, res.Points)
		}
	}
}

func TestTrueFalse(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Type: TypeTrueFalse, Points: 1, Choices: 2, Correct: []int{0}}

	if res := g.Grade(q, &Response{Selected: []int{0}}); !res.Correct {
		t.Fatalf("expected correct")
	}
	if res := g.Grade(q, &Response{Selected: []int{1}}); res.Correct {
		t.Fatalf("expected incorrect")
	}
}

func TestMultiChoiceExactSet(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Type: TypeMCQMultiple, Points: 3, Choices: 4, Correct: []int{0, 2}}

	cases := []struct {
		name string
		sel  []int
		want bool
	}{
		{"exact set", []int{0, 2}, true},
		{"order insensitive", []int{2, 0}, true},
		{"duplicates collapse", []int{0, 2, 2}, true},
		{"subset", []int{0}, false},
		{"superset", []int{0, 1, 2}, false},
		{"disjoint", []int{1, 3}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		res := g.Grade(q, &Response{Selected: tc.sel})
		if res.Correct != tc.want {
			t.Errorf("%s: correct=%v, want %v", tc.name, res.Correct, tc.want)
		}
	}
}

func TestFillBlank(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Type: TypeFillBlank, Points: 1, Answer: "Photosynthesis"}

	cases := []struct {
		name string
		text string
		want bool
	}{
		{"exact", "Photosynthesis", true},
		{"case folded", "photosynthesis", true},
		{"trimmed", "  photosynthesis \n", true},
		{"wrong", "respiration", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		res := g.Grade(q, &Response{Text: tc.text})
		if res.Correct != tc.want {
			t.Errorf("%s: correct=%v, want %v", tc.name, res.Correct, tc.want)
		}
	}

	// An empty canonical answer never matches, even an empty submission.
	blank := Q{Type: TypeFillBlank, Points: 1, Answer: "  "}
	if res := g.Grade(blank, &Response{Text: ""}); res.Correct {
		t.Fatalf("empty canonical answer must not match")
	}
}

func TestUnknownTypeGradesIncorrect(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Type: "essay", Points: 5}
	if res := g.Grade(q, &Response{Text: "anything"}); res.Correct || res.Points != 0 {
		t.Fatalf("unknown type must grade incorrect: %+v", res)
	}
}

func TestGradeDeterministic(t *testing.T) {
	g := NewDefaultGrader()
	q := Q{Type: TypeMCQMultiple, Points: 2, Choices: 3, Correct: []int{1, 2}}
	resp := &Response{Selected: []int{2, 1}}
	first := g.Grade(q, resp)
	for i := 0; i < 50; i++ {
		if got := g.Grade(q, resp); got != first {
			t.Fatalf("grade not deterministic: %+v vs %+v", got, first)
		}
	}
}
