package worksheet

import "github.com/stepwise-learn/stepwise/internal/grading"

// Step is one scaffolding stage of a multi-step question.
type Step struct {
	ID           string                    `json:"id"`
	Title        string                    `json:"title,omitempty"`
	PromptHTML   string                    `json:"prompt_html,omitempty"`
	SubQuestions []grading.SubQuestionSpec `json:"sub_questions"`
}

type Question struct {
	ID           string              `json:"id"`
	PromptHTML   string              `json:"prompt_html,omitempty"`
	Steps        []Step              `json:"steps"`
	GradingMode  grading.GradingMode `json:"grading_mode"` // system|ai
	Rubric       grading.Rubric      `json:"rubric,omitempty"`
	CurrencyType string              `json:"currency_type,omitempty"`
}

// SubQuestions flattens the question's steps in order.
func (q Question) SubQuestions() []grading.SubQuestionSpec {
	var out []grading.SubQuestionSpec
	for _, st := range q.Steps {
		out = append(out, st.SubQuestions...)
	}
	return out
}

type Worksheet struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt int64      `json:"created_at,omitempty"`
}

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
)

// Attempt is one student's run at a worksheet. Answers maps sub-question id
// to the raw submitted payload; Reviews maps question id to the external
// grader's review for ai-graded questions. Verdicts and the score fields
// are caches of pure recomputations, never the source of truth.
type Attempt struct {
	ID          string                       `json:"id"`
	WorksheetID string                       `json:"worksheet_id"`
	UserID      string                       `json:"user_id"`
	Status      string                       `json:"status"`
	Answers     map[string]interface{}       `json:"answers"`
	Reviews     map[string]grading.AIReview  `json:"reviews,omitempty"`
	Verdicts    map[string]grading.Verdict   `json:"verdicts,omitempty"`
	Aggregates  map[string]float64           `json:"aggregates,omitempty"`
	TotalMarks  float64                      `json:"total_marks"`
	MaxMarks    float64                      `json:"max_marks"`
	Rewards     map[string]float64           `json:"rewards,omitempty"`
	StartedAt   int64                        `json:"started_at,omitempty"`
	SubmittedAt int64                        `json:"submitted_at,omitempty"`
}
