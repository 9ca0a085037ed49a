package grading_test

import (
	"testing"

	"github.com/stepwise-learn/stepwise/internal/grading"
)

func numericalSpec(correct, tolPct float64, unit string) grading.SubQuestionSpec {
	return grading.SubQuestionSpec{
		ID:         "n1",
		AnswerType: grading.AnswerNumerical,
		Marks:      3,
		Numerical: &grading.NumericalAnswer{
			CorrectValue:   correct,
			ToleranceValue: tolPct,
			BaseUnit:       unit,
		},
	}
}

func TestEvaluateNumerical(t *testing.T) {
	eval := grading.NewEvaluator()
	spec := numericalSpec(100, 5, "N")

	cases := []struct {
		answer interface{}
		want   bool
	}{
		{"100 N", true},
		{"95 N", true},  // boundary inclusive
		{"105 N", true}, // boundary inclusive
		{"106 N", false},
		{"94 N", false},
		{"0.1 kN", true},     // prefixed unit converts to base
		{"100", true},        // bare number falls back to raw comparison
		{"0.1", false},       // bare number, raw value way off
		{"100 kg", true},     // incompatible unit, raw value in tolerance
		{float64(98), true},  // JSON numbers arrive as float64
		{"", false},
		{nil, false},
		{"not a number", false},
	}
	for _, c := range cases {
		if got := eval.Evaluate(spec, c.answer).IsCorrect; got != c.want {
			t.Errorf("numerical %v: got %v, want %v", c.answer, got, c.want)
		}
	}
}

func TestEvaluateNumericalPercentBase(t *testing.T) {
	eval := grading.NewEvaluator()
	spec := numericalSpec(50, 0, "%")
	for _, c := range []struct {
		answer string
		want   bool
	}{
		{"50%", true},
		{"50", true}, // bare number accepted where percent is expected
		{"49", false},
	} {
		if got := eval.Evaluate(spec, c.answer).IsCorrect; got != c.want {
			t.Errorf("percent %q: got %v, want %v", c.answer, got, c.want)
		}
	}
}

func mcqSpec(multi bool, correct ...string) grading.SubQuestionSpec {
	return grading.SubQuestionSpec{
		ID:         "m1",
		AnswerType: grading.AnswerMCQ,
		Marks:      2,
		MCQ: &grading.MCQAnswer{
			Options: []grading.MCQOption{
				{ID: "A", Text: "first"}, {ID: "B", Text: "second"},
				{ID: "C", Text: "third"},
			},
			CorrectOptions: correct,
			IsMultiCorrect: multi,
		},
	}
}

func TestEvaluateMCQSingle(t *testing.T) {
	eval := grading.NewEvaluator()
	spec := mcqSpec(false, "B")

	if !eval.Evaluate(spec, "B").IsCorrect {
		t.Error("correct option rejected")
	}
	for _, bad := range []interface{}{"A", "", nil, []string{"B"}} {
		if eval.Evaluate(spec, bad).IsCorrect {
			t.Errorf("answer %v accepted, want incorrect", bad)
		}
	}
}

func TestEvaluateMCQMulti(t *testing.T) {
	eval := grading.NewEvaluator()
	spec := mcqSpec(true, "A", "B")

	cases := []struct {
		answer interface{}
		want   bool
	}{
		{[]string{"B", "A"}, true},                  // order irrelevant
		{[]interface{}{"A", "B"}, true},             // decoded JSON array
		{"B,A", true},                               // comma-joined encoding
		{" B , A ", true},                           // with stray spaces
		{[]string{"A", "A", "B"}, true},             // duplicates collapse
		{[]string{"A"}, false},                      // subset
		{[]string{"A", "B", "C"}, false},            // superset still wrong
		{[]string{}, false},                         // empty
		{"", false},
		{nil, false},
	}
	for _, c := range cases {
		if got := eval.Evaluate(spec, c.answer).IsCorrect; got != c.want {
			t.Errorf("multi %v: got %v, want %v", c.answer, got, c.want)
		}
	}
}

func TestEvaluateMCQMultiEmptyCorrectSet(t *testing.T) {
	eval := grading.NewEvaluator()
	spec := mcqSpec(true)
	if eval.Evaluate(spec, []string{}).IsCorrect {
		t.Error("empty submission accepted against empty correct set")
	}
}

func textSpec(logic grading.MatchLogic, caseSensitive bool, keywords ...string) grading.SubQuestionSpec {
	return grading.SubQuestionSpec{
		ID:         "t1",
		AnswerType: grading.AnswerText,
		Marks:      1,
		Text: &grading.TextAnswer{
			Keywords:      keywords,
			MatchLogic:    logic,
			CaseSensitive: caseSensitive,
		},
	}
}

func TestEvaluateText(t *testing.T) {
	eval := grading.NewEvaluator()

	anySpec := textSpec(grading.MatchAny, false, "photosynthesis", "chlorophyll")
	if !eval.Evaluate(anySpec, "Plants use Photosynthesis to make food").IsCorrect {
		t.Error("any: case-insensitive substring should match")
	}
	if eval.Evaluate(anySpec, "plants use roots").IsCorrect {
		t.Error("any: no keyword present should fail")
	}
	if eval.Evaluate(anySpec, "").IsCorrect {
		t.Error("any: empty answer should fail")
	}

	allSpec := textSpec(grading.MatchAll, false, "supply", "demand")
	if !eval.Evaluate(allSpec, "Supply meets demand at equilibrium").IsCorrect {
		t.Error("all: every keyword present should pass")
	}
	if eval.Evaluate(allSpec, "supply only").IsCorrect {
		t.Error("all: missing keyword should fail")
	}

	exactSpec := textSpec(grading.MatchExact, false, "mitochondria")
	if !eval.Evaluate(exactSpec, "Mitochondria!").IsCorrect {
		t.Error("exact: punctuation and case should not matter")
	}
	if eval.Evaluate(exactSpec, "the mitochondria").IsCorrect {
		t.Error("exact: extra words should fail")
	}

	caseSpec := textSpec(grading.MatchAny, true, "ATP")
	if eval.Evaluate(caseSpec, "atp is produced").IsCorrect {
		t.Error("case-sensitive: wrong case should fail")
	}
	if !eval.Evaluate(caseSpec, "ATP is produced").IsCorrect {
		t.Error("case-sensitive: matching case should pass")
	}
}

func TestEvaluateTextFuzzyExact(t *testing.T) {
	eval := grading.NewEvaluator(grading.WithMaxEditDistance(1))
	spec := textSpec(grading.MatchExact, false, "mitochondria")
	if !eval.Evaluate(spec, "mitochondrio").IsCorrect {
		t.Error("one-letter typo should pass with edit distance 1")
	}
	if eval.Evaluate(spec, "mitochon").IsCorrect {
		t.Error("four missing letters should still fail")
	}
}

func TestEvaluateTextLegacyAnyOverride(t *testing.T) {
	eval := grading.NewEvaluator(grading.WithLegacyAnyTextMatch(true))
	// Declared all-logic, but the legacy rule grades any single hit correct.
	spec := textSpec(grading.MatchAll, false, "supply", "demand")
	if !eval.Evaluate(spec, "supply only").IsCorrect {
		t.Error("legacy mode should apply the any rule")
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	eval := grading.NewEvaluator()
	specs := []grading.SubQuestionSpec{
		numericalSpec(100, 5, "N"),
		mcqSpec(true, "A", "B"),
		textSpec(grading.MatchAny, false, "keyword"),
	}
	answers := []interface{}{"0.1 kN", "A,B", "some keyword here"}
	for i, spec := range specs {
		first := eval.Evaluate(spec, answers[i])
		for j := 0; j < 5; j++ {
			if got := eval.Evaluate(spec, answers[i]); got != first {
				t.Fatalf("spec %d: evaluation not stable: %v then %v", i, first, got)
			}
		}
	}
}

func TestEvaluateMalformedSpec(t *testing.T) {
	eval := grading.NewEvaluator()
	// Spec missing its answer payload must grade incorrect, not panic.
	for _, spec := range []grading.SubQuestionSpec{
		{ID: "x", AnswerType: grading.AnswerNumerical},
		{ID: "x", AnswerType: grading.AnswerMCQ},
		{ID: "x", AnswerType: grading.AnswerText},
		{ID: "x", AnswerType: "unknown"},
	} {
		if eval.Evaluate(spec, "anything").IsCorrect {
			t.Errorf("malformed spec %q graded correct", spec.AnswerType)
		}
	}
}
