package grading_test

import (
	"reflect"
	"testing"

	"github.com/stepwise-learn/stepwise/internal/grading"
)

func systemQuestion(currency string, verdicts map[string]grading.Verdict) grading.ScoredQuestion {
	return grading.ScoredQuestion{
		Specs: []grading.SubQuestionSpec{
			{ID: "a", AnswerType: grading.AnswerNumerical, Marks: 3},
			{ID: "b", AnswerType: grading.AnswerMCQ, Marks: 2},
		},
		Mode:     grading.GradeBySystem,
		Currency: currency,
		Verdicts: verdicts,
	}
}

func TestScoreAttemptSystemGraded(t *testing.T) {
	q := systemQuestion("xp", map[string]grading.Verdict{
		"a": {IsCorrect: true},
		"b": {IsCorrect: false},
	})
	got := grading.ScoreAttempt([]grading.ScoredQuestion{q})

	if got.TotalMarks != 3 || got.MaxMarks != 5 {
		t.Errorf("marks = %v/%v, want 3/5", got.TotalMarks, got.MaxMarks)
	}
	if !almostEqual(got.Percent, 60) {
		t.Errorf("percent = %v, want 60", got.Percent)
	}
	if got.Rewards["xp"] != 3 {
		t.Errorf("xp reward = %v, want 3", got.Rewards["xp"])
	}
}

func TestScoreAttemptAIGraded(t *testing.T) {
	q := grading.ScoredQuestion{
		Specs: []grading.SubQuestionSpec{
			{ID: "a", Marks: 6},
			{ID: "b", Marks: 4},
		},
		Mode:      grading.GradeByAI,
		Currency:  "coin",
		Aggregate: 68,
	}
	got := grading.ScoreAttempt([]grading.ScoredQuestion{q})

	if !almostEqual(got.TotalMarks, 6.8) || got.MaxMarks != 10 {
		t.Errorf("marks = %v/%v, want 6.8/10", got.TotalMarks, got.MaxMarks)
	}
	if !almostEqual(got.Rewards["coin"], 6.8) {
		t.Errorf("coin reward = %v, want 6.8", got.Rewards["coin"])
	}
}

func TestScoreAttemptSparkPaysCoin(t *testing.T) {
	q := grading.ScoredQuestion{
		Specs: []grading.SubQuestionSpec{
			{ID: "a", Marks: 10},
		},
		Mode:     grading.GradeBySystem,
		Currency: grading.CurrencySpark,
		Verdicts: map[string]grading.Verdict{"a": {IsCorrect: true}},
	}
	got := grading.ScoreAttempt([]grading.ScoredQuestion{q})

	if got.Rewards[grading.CurrencyCoin] != 5 {
		t.Errorf("coin = %v, want floor(10*0.5)=5", got.Rewards[grading.CurrencyCoin])
	}
	if _, ok := got.Rewards[grading.CurrencySpark]; ok {
		t.Error("spark must never accrue directly")
	}
}

func TestScoreAttemptSparkFloors(t *testing.T) {
	q := grading.ScoredQuestion{
		Specs: []grading.SubQuestionSpec{
			{ID: "a", Marks: 7},
		},
		Mode:     grading.GradeBySystem,
		Currency: grading.CurrencySpark,
		Verdicts: map[string]grading.Verdict{"a": {IsCorrect: true}},
	}
	got := grading.ScoreAttempt([]grading.ScoredQuestion{q})
	if got.Rewards[grading.CurrencyCoin] != 3 {
		t.Errorf("coin = %v, want floor(3.5)=3", got.Rewards[grading.CurrencyCoin])
	}
}

func TestScoreAttemptRewardsAdditive(t *testing.T) {
	questions := []grading.ScoredQuestion{
		systemQuestion("coin", map[string]grading.Verdict{
			"a": {IsCorrect: true}, "b": {IsCorrect: true},
		}),
		systemQuestion(grading.CurrencySpark, map[string]grading.Verdict{
			"a": {IsCorrect: true}, "b": {IsCorrect: true},
		}),
		systemQuestion("xp", map[string]grading.Verdict{
			"a": {IsCorrect: true}, "b": {IsCorrect: false},
		}),
	}
	got := grading.ScoreAttempt(questions)

	if got.TotalMarks != 13 || got.MaxMarks != 15 {
		t.Errorf("marks = %v/%v, want 13/15", got.TotalMarks, got.MaxMarks)
	}
	// coin: 5 direct + floor(5*0.5)=2 from the spark question
	want := map[string]float64{"coin": 7, "xp": 3}
	if !reflect.DeepEqual(got.Rewards, want) {
		t.Errorf("rewards = %v, want %v", got.Rewards, want)
	}
}

func TestScoreAttemptEmpty(t *testing.T) {
	got := grading.ScoreAttempt(nil)
	if got.TotalMarks != 0 || got.MaxMarks != 0 || got.Percent != 0 {
		t.Errorf("empty attempt scored %+v", got)
	}
}

func TestScoreAttemptIdempotent(t *testing.T) {
	questions := []grading.ScoredQuestion{
		systemQuestion(grading.CurrencySpark, map[string]grading.Verdict{"a": {IsCorrect: true}}),
		{
			Specs:     []grading.SubQuestionSpec{{ID: "c", Marks: 10}},
			Mode:      grading.GradeByAI,
			Currency:  "coin",
			Aggregate: 50,
		},
	}
	first := grading.ScoreAttempt(questions)
	for i := 0; i < 5; i++ {
		got := grading.ScoreAttempt(questions)
		if got.TotalMarks != first.TotalMarks || got.MaxMarks != first.MaxMarks ||
			!reflect.DeepEqual(got.Rewards, first.Rewards) {
			t.Fatalf("scorer not stable: %+v then %+v", first, got)
		}
	}
}
