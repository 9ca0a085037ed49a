package worksheet

import (
	"math/rand"

	"github.com/stepwise-learn/stepwise/internal/grading"
)

// StudentView returns a deep copy of the worksheet with everything that
// would give away answers removed: numerical targets, correct option ids,
// text keywords and rubrics. Options are reshuffled on every call for
// sub-questions that ask for it.
func StudentView(ws Worksheet) Worksheet {
	out := ws
	out.Questions = make([]Question, len(ws.Questions))
	for i, q := range ws.Questions {
		cq := q
		cq.Rubric = nil
		cq.Steps = make([]Step, len(q.Steps))
		for j, st := range q.Steps {
			cs := st
			cs.SubQuestions = make([]grading.SubQuestionSpec, len(st.SubQuestions))
			for k, sq := range st.SubQuestions {
				cs.SubQuestions[k] = scrubSpec(sq)
			}
			cq.Steps[j] = cs
		}
		out.Questions[i] = cq
	}
	return out
}

func scrubSpec(sq grading.SubQuestionSpec) grading.SubQuestionSpec {
	switch {
	case sq.Numerical != nil:
		n := *sq.Numerical
		n.CorrectValue = 0
		n.ToleranceValue = 0
		sq.Numerical = &n
	case sq.MCQ != nil:
		m := *sq.MCQ
		m.CorrectOptions = nil
		m.Options = append([]grading.MCQOption(nil), sq.MCQ.Options...)
		if m.ShuffleOptions {
			rand.Shuffle(len(m.Options), func(i, j int) {
				m.Options[i], m.Options[j] = m.Options[j], m.Options[i]
			})
		}
		sq.MCQ = &m
	case sq.Text != nil:
		t := *sq.Text
		t.Keywords = nil
		sq.Text = &t
	}
	return sq
}
