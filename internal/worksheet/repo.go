package worksheet

import (
	"context"
	"errors"

	"github.com/stepwise-learn/stepwise/internal/grading"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrFinalized = errors.New("attempt already submitted")
)

type ListOpts struct {
	WorksheetID string
	UserID      string
	Status      string
	Limit       int
	Offset      int
}

type Store interface {
	PutWorksheet(ctx context.Context, ws Worksheet) error
	// GetWorksheet returns the student-safe view: answer keys stripped,
	// shuffled option order where the author asked for it.
	GetWorksheet(ctx context.Context, id string) (Worksheet, error)
	// GetWorksheetFull returns the worksheet with answer keys, for
	// teachers and for grading.
	GetWorksheetFull(ctx context.Context, id string) (Worksheet, error)

	NewAttempt(ctx context.Context, worksheetID, userID string) (Attempt, error)
	SaveAnswers(ctx context.Context, attemptID string, answers map[string]interface{}) (Attempt, error)
	// AttachReview records the external grader's review for one ai-graded
	// question and re-scores the attempt.
	AttachReview(ctx context.Context, attemptID, questionID string, review grading.AIReview) (Attempt, error)
	Submit(ctx context.Context, attemptID string) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	// Score recomputes the attempt's marks and rewards from its stored
	// answers and reviews, without mutating what is persisted.
	Score(ctx context.Context, attemptID string) (grading.AttemptScore, error)
	ListAttempts(ctx context.Context, opts ListOpts) ([]Attempt, error)
}
