package grading

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Rubric maps an author-defined category name to its weight. Weights are
// intended to sum to 100 but that is not enforced; NormalizeScore rescales.
type Rubric map[string]float64

// Breakdown is the external grader's raw per-category percentage scores,
// keyed by its own (possibly inconsistently spelled) category names.
type Breakdown map[string]float64

// normalizeKey lowercases and strips everything non-alphanumeric so that
// "Problem Understanding" and "problem_understanding" collide.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeScore reconciles an external grader's breakdown against the
// author's rubric and returns a single 0-100 aggregate. Category names are
// matched on their normalized keys first, then by substring either way; a
// category with no match scores 0. If the whole rubric fails to match but
// the breakdown carries real scores, the unweighted mean of the breakdown
// is used instead so a misnamed rubric cannot zero out a graded attempt.
//
// The return value is unrounded; use RoundScore for presentation.
func NormalizeScore(r Rubric, b Breakdown) float64 {
	normScores := make(map[string]float64, len(b))
	normKeys := make([]string, 0, len(b))
	for k, v := range b {
		nk := normalizeKey(k)
		if _, seen := normScores[nk]; !seen {
			normKeys = append(normKeys, nk)
		}
		normScores[nk] = v
	}
	sort.Strings(normKeys) // deterministic fuzzy matches

	weighted := 0.0
	totalWeight := 0.0
	for cat, weight := range r {
		nc := normalizeKey(cat)
		score, ok := normScores[nc]
		if !ok {
			for _, nk := range normKeys {
				if nk == "" || nc == "" {
					continue
				}
				if strings.Contains(nk, nc) || strings.Contains(nc, nk) {
					score, ok = normScores[nk], true
					break
				}
			}
		}
		if !ok {
			score = 0
		}
		weighted += score / 100 * weight
		totalWeight += weight
	}

	final := weighted
	if totalWeight > 0 && totalWeight != 100 {
		final = weighted / totalWeight * 100
	}

	if final == 0 {
		if mean, ok := breakdownMean(b); ok {
			final = mean
		}
	}
	return clampScore(final)
}

// breakdownMean is the fallback when rubric matching produced nothing: the
// plain average of all breakdown values, provided at least one is non-zero.
func breakdownMean(b Breakdown) (float64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	sum := 0.0
	nonZero := false
	for _, v := range b {
		sum += v
		if v != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		return 0, false
	}
	return sum / float64(len(b)), true
}

func clampScore(s float64) float64 {
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// RoundScore rounds an aggregate for display. Threshold comparisons (pass
// at 50, say) should use the unrounded value.
func RoundScore(s float64) int {
	return int(math.Round(clampScore(s)))
}
