package grading

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type AnswerType string

const (
	AnswerNumerical AnswerType = "numerical"
	AnswerMCQ       AnswerType = "mcq"
	AnswerText      AnswerType = "text"
)

type MatchLogic string

const (
	MatchAny   MatchLogic = "any"
	MatchAll   MatchLogic = "all"
	MatchExact MatchLogic = "exact"
)

type NumericalAnswer struct {
	CorrectValue   float64 `json:"correct_value"`
	ToleranceValue float64 `json:"tolerance_value"` // percentage of CorrectValue, >= 0
	BaseUnit       string  `json:"base_unit"`
}

type MCQOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type MCQAnswer struct {
	Options        []MCQOption `json:"options"`
	CorrectOptions []string    `json:"correct_options"`
	IsMultiCorrect bool        `json:"is_multi_correct"`
	ShuffleOptions bool        `json:"shuffle_options"`
}

type TextAnswer struct {
	Keywords      []string   `json:"keywords"`
	MatchLogic    MatchLogic `json:"match_logic"`
	CaseSensitive bool       `json:"case_sensitive"`
}

// SubQuestionSpec is one gradable unit: exactly one of Numerical, MCQ or
// Text is populated, matching AnswerType.
type SubQuestionSpec struct {
	ID         string           `json:"id"`
	AnswerType AnswerType       `json:"answer_type"`
	Marks      int              `json:"marks"`
	Numerical  *NumericalAnswer `json:"numerical_answer,omitempty"`
	MCQ        *MCQAnswer       `json:"mcq_answer,omitempty"`
	Text       *TextAnswer      `json:"text_answer,omitempty"`
}

// Verdict is the correctness outcome for one sub-question. It is a pure
// function of (spec, answer) and safe to recompute at any time.
type Verdict struct {
	IsCorrect bool `json:"is_correct"`
}

// Evaluator options

type EvalOption func(*Evaluator)

// WithLegacyAnyTextMatch forces the "any keyword matches" rule for every
// text answer regardless of its declared match logic. Kept for worksheets
// authored against the old graders.
func WithLegacyAnyTextMatch(b bool) EvalOption {
	return func(e *Evaluator) { e.legacyAnyText = b }
}

// WithMaxEditDistance allows small typos on exact-match text answers.
func WithMaxEditDistance(n int) EvalOption {
	return func(e *Evaluator) { e.maxEdit = n }
}

// Evaluator decides whether a raw student answer is correct for a given
// sub-question spec. It never panics and performs no I/O; any unparsable,
// missing or malformed answer evaluates to incorrect.
type Evaluator struct {
	legacyAnyText bool
	maxEdit       int
}

func NewEvaluator(opts ...EvalOption) *Evaluator {
	e := &Evaluator{}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Evaluator) Evaluate(spec SubQuestionSpec, answer interface{}) Verdict {
	switch spec.AnswerType {
	case AnswerNumerical:
		return Verdict{IsCorrect: e.evalNumerical(spec.Numerical, answer)}
	case AnswerMCQ:
		return Verdict{IsCorrect: e.evalMCQ(spec.MCQ, answer)}
	case AnswerText:
		return Verdict{IsCorrect: e.evalText(spec.Text, answer)}
	default:
		return Verdict{}
	}
}

func (e *Evaluator) evalNumerical(na *NumericalAnswer, answer interface{}) bool {
	if na == nil {
		return false
	}
	raw, ok := answerString(answer)
	if !ok {
		return false
	}
	m, ok := ParseMeasurement(raw)
	if !ok {
		return false
	}
	// Tolerance is a percentage of the correct value, not of the submission.
	tol := math.Abs(na.ToleranceValue / 100 * na.CorrectValue)

	v := ConvertUnit(m.Value, m.Unit, na.BaseUnit)
	if math.IsNaN(v) {
		// Units incompatible or missing: compare the raw parsed value.
		// Students often answer unit-free, so this leniency is deliberate.
		v = m.Value
	}
	return math.Abs(v-na.CorrectValue) <= tol
}

func (e *Evaluator) evalMCQ(ma *MCQAnswer, answer interface{}) bool {
	if ma == nil {
		return false
	}
	if ma.IsMultiCorrect {
		picked := answerSet(answer)
		if len(picked) == 0 {
			// An empty submission is always wrong, even against an
			// empty correct set.
			return false
		}
		return setEqual(picked, toSet(ma.CorrectOptions))
	}
	id, ok := answerString(answer)
	if !ok || id == "" {
		return false
	}
	for _, c := range ma.CorrectOptions {
		if id == c {
			return true
		}
	}
	return false
}

func (e *Evaluator) evalText(ta *TextAnswer, answer interface{}) bool {
	if ta == nil {
		return false
	}
	raw, ok := answerString(answer)
	if !ok {
		return false
	}
	text := strings.TrimSpace(raw)
	if text == "" || len(ta.Keywords) == 0 {
		return false
	}

	logic := ta.MatchLogic
	if e.legacyAnyText || logic == "" {
		logic = MatchAny
	}

	fold := func(s string) string {
		if ta.CaseSensitive {
			return s
		}
		return strings.ToLower(s)
	}
	body := fold(text)

	switch logic {
	case MatchAll:
		for _, k := range ta.Keywords {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			if !strings.Contains(body, fold(k)) {
				return false
			}
		}
		return true
	case MatchExact:
		norm := normalizeText(body)
		for _, k := range ta.Keywords {
			nk := normalizeText(fold(k))
			if nk == norm {
				return true
			}
			if e.maxEdit > 0 && levenshtein(nk, norm) <= e.maxEdit {
				return true
			}
		}
		return false
	default: // MatchAny
		for _, k := range ta.Keywords {
			k = strings.TrimSpace(k)
			if k != "" && strings.Contains(body, fold(k)) {
				return true
			}
		}
		return false
	}
}

// answer ingress normalization

// answerString coerces the loosely-typed answer payloads that arrive from
// JSON into a string. Numbers are formatted; anything else is rejected.
func answerString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return "", false
	}
}

// answerSet builds the canonical option-id set for a multi-select answer.
// Submissions arrive as []string, []interface{} or a comma-joined string;
// all three collapse to one set so duplicates never inflate the size.
func answerSet(v interface{}) map[string]struct{} {
	out := map[string]struct{}{}
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out[s] = struct{}{}
		}
	}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			add(s)
		}
	case []interface{}:
		for _, e := range t {
			if s, ok := e.(string); ok {
				add(s)
			}
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			add(s)
		}
	}
	return out
}

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
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
