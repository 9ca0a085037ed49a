package grading

import (
	"context"
	"strings"
)

// rejectedMarker is the feedback sentinel an external grader returns when it
// refuses the submitted content outright (unreadable image, off-topic work).
const rejectedMarker = "validation failed"

// AIReview is the materialized result of one external grading call: raw
// per-category scores plus free-text feedback. Reviews are immutable once
// an attempt is finalized; aggregate scores are always recomputed from them.
type AIReview struct {
	Breakdown Breakdown `json:"breakdown"`
	Feedback  string    `json:"feedback"`
}

// Rejected reports whether the grader refused the submission. A rejected
// review deliberately scores zero; it is the only path where the engine
// fabricates a score on the grader's behalf.
func (r AIReview) Rejected() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(r.Feedback)), rejectedMarker)
}

// AggregateScore turns a review into the question's 0-100 aggregate under
// the author's rubric. Rejected reviews short-circuit to zero without
// consulting the rubric.
func AggregateScore(rubric Rubric, review AIReview) float64 {
	if review.Rejected() {
		return 0
	}
	return NormalizeScore(rubric, review.Breakdown)
}

// Submission is the student work handed to an external rubric grader.
// Either Response (typed work) or Image (a photographed worksheet page)
// may be set.
type Submission struct {
	QuestionText string
	Response     string
	Image        []byte
	ImageMIME    string
}

// RubricGrader is the boundary to the external grading service. Timeouts,
// retries and credentials belong to implementations; the engine only ever
// consumes the returned review. An outright service failure must surface as
// an error, never as a zero-score review.
type RubricGrader interface {
	GradeSubmission(ctx context.Context, sub Submission, rubric Rubric) (AIReview, error)
}
