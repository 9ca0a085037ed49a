package worksheet

import "github.com/stepwise-learn/stepwise/internal/grading"

// Recompute grades every answer in the attempt against the worksheet and
// fills the attempt's verdict, aggregate, marks and reward fields. It is
// idempotent: the same worksheet, answers and reviews always produce the
// same result, so callers are free to run it on every view.
func Recompute(ws Worksheet, a *Attempt, eval *grading.Evaluator) {
	verdicts := map[string]grading.Verdict{}
	aggregates := map[string]float64{}
	scored := make([]grading.ScoredQuestion, 0, len(ws.Questions))

	for _, q := range ws.Questions {
		specs := q.SubQuestions()
		sq := grading.ScoredQuestion{
			Specs:    specs,
			Mode:     q.GradingMode,
			Currency: q.CurrencyType,
		}
		switch q.GradingMode {
		case grading.GradeByAI:
			if rev, ok := a.Reviews[q.ID]; ok {
				sq.Aggregate = grading.AggregateScore(q.Rubric, rev)
			}
			aggregates[q.ID] = sq.Aggregate
		default:
			sq.Verdicts = map[string]grading.Verdict{}
			for _, spec := range specs {
				v := grading.Verdict{}
				if ans, ok := a.Answers[spec.ID]; ok {
					v = eval.Evaluate(spec, ans)
				}
				sq.Verdicts[spec.ID] = v
				verdicts[spec.ID] = v
			}
		}
		scored = append(scored, sq)
	}

	score := grading.ScoreAttempt(scored)
	a.Verdicts = verdicts
	a.Aggregates = aggregates
	a.TotalMarks = score.TotalMarks
	a.MaxMarks = score.MaxMarks
	a.Rewards = score.Rewards
}
