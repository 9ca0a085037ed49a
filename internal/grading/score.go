package grading

import "math"

type GradingMode string

const (
	GradeBySystem GradingMode = "system"
	GradeByAI     GradingMode = "ai"
)

// Currency names with special accrual rules.
const (
	CurrencySpark = "spark"
	CurrencyCoin  = "coin"
)

// ScoredQuestion is one question's worth of inputs to the attempt scorer:
// its sub-question specs plus either per-sub-question verdicts (system
// grading) or a single 0-100 aggregate (AI grading).
type ScoredQuestion struct {
	Specs     []SubQuestionSpec
	Mode      GradingMode
	Currency  string
	Verdicts  map[string]Verdict // sub-question id -> verdict, system mode
	Aggregate float64            // 0-100, ai mode
}

// AttemptScore is the worksheet-level total. Rewards maps currency name to
// the amount accrued across all questions.
type AttemptScore struct {
	TotalMarks float64            `json:"total_marks"`
	MaxMarks   float64            `json:"max_marks"`
	Percent    float64            `json:"percent"`
	Rewards    map[string]float64 `json:"rewards"`
}

// ScoreAttempt aggregates question results into total marks and currency
// rewards. It is a pure function of its inputs and safe to recompute on
// every view; nothing here is a second source of truth.
//
// The synthetic "spark" currency never accrues directly: spark questions
// pay out coin at half the earned-marks rate, floored. Every other currency
// accrues 1:1 with earned marks.
func ScoreAttempt(questions []ScoredQuestion) AttemptScore {
	out := AttemptScore{Rewards: map[string]float64{}}
	for _, q := range questions {
		max := 0.0
		for _, s := range q.Specs {
			max += float64(s.Marks)
		}

		earned := 0.0
		switch q.Mode {
		case GradeByAI:
			// AI questions still declare marks per sub-question for
			// weighting; one aggregate covers the whole question.
			earned = clampScore(q.Aggregate) / 100 * max
		default:
			for _, s := range q.Specs {
				if q.Verdicts[s.ID].IsCorrect {
					earned += float64(s.Marks)
				}
			}
		}

		out.TotalMarks += earned
		out.MaxMarks += max

		switch q.Currency {
		case "":
			// no reward currency declared
		case CurrencySpark:
			out.Rewards[CurrencyCoin] += math.Floor(earned * 0.5)
		default:
			out.Rewards[q.Currency] += earned
		}
	}
	if out.MaxMarks > 0 {
		out.Percent = out.TotalMarks / out.MaxMarks * 100
	}
	return out
}
