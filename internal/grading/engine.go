package grading

// Question types understood by the default grader.
const (
	TypeMCQSingle   = "mcq-single"
	TypeMCQMultiple = "mcq-multiple"
	TypeTrueFalse   = "true-false"
	TypeFillBlank   = "fill-blank"
)

// Q is a minimal view of a question needed for grading.
// Keep this in sync with whatever fields your store uses.
type Q struct {
	Type    string
	Points  int
	Choices int    // number of options (mcq / true-false)
	Correct []int  // option indices flagged correct
	Answer  string // canonical answer (fill-blank)
}

// Response is a student's submitted answer to one question, a tagged
// union keyed by the question's type: choice questions use Selected,
// fill-blank uses Text.
type Response struct {
	Selected []int  `json:"selected,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Result is the outcome of grading a single question response.
type Result struct {
	Correct bool
	Points  int // points awarded
}

// Strategy grades a single question.
type Strategy interface {
	Grade(q Q, resp *Response) Result
}

// Grader routes by question type to the correct Strategy. Grading is
// deterministic and never fails: a missing, malformed, or out-of-range
// response grades as incorrect for zero points.
type Grader interface {
	Grade(q Q, resp *Response) Result
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(q Q, resp *Response) Result {
	s, ok := g.strategies[q.Type]
	if !ok || resp == nil {
		return Result{}
	}
	return s.Grade(q, resp)
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[string]Strategy{
			TypeMCQSingle:   singleChoiceStrategy{},
			TypeTrueFalse:   singleChoiceStrategy{},
			TypeMCQMultiple: multiChoiceStrategy{},
			TypeFillBlank:   fillBlankStrategy{},
		},
	}
}

// --- Strategies ---

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(q Q, resp *Response) Result {
	if len(resp.Selected) != 1 {
		return Result{}
	}
	idx := resp.Selected[0]
	if idx < 0 || idx >= q.Choices {
		return Result{}
	}
	for _, c := range q.Correct {
		if idx == c {
			return Result{Correct: true, Points: q.Points}
		}
	}
	return Result{}
}

type multiChoiceStrategy struct{}

// Exact set equality: any subset or superset of the correct indices
// scores zero. Partial credit is never awarded.
func (multiChoiceStrategy) Grade(q Q, resp *Response) Result {
	correct := toSet(q.Correct)
	picked := toSet(resp.Selected)
	if len(correct) == 0 || !setEqual(correct, picked) {
		return Result{}
	}
	return Result{Correct: true, Points: q.Points}
}

type fillBlankStrategy struct{}

func (fillBlankStrategy) Grade(q Q, resp *Response) Result {
	if !textMatch(resp.Text, q.Answer) {
		return Result{}
	}
	return Result{Correct: true, Points: q.Points}
}

// helpers

func toSet(idx []int) map[int]struct{} {
	m := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		m[i] = struct{}{}
	}
	return m
}

func setEqual(a, b map[int]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
