package grading

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Measurement is a parsed numeric answer: the magnitude plus whatever unit
// text trailed it, verbatim. Unit is "" for a bare number.
type Measurement struct {
	Value float64
	Unit  string
}

// leading signed/decimal/exponential number, optional trailing unit text
var measurementRe = regexp.MustCompile(`^([+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)\s*(.*)$`)

// ParseMeasurement parses a free-text numeric answer like "12.5 kN", "-3e2"
// or "50%". The second return is false when the input has no parseable
// numeric prefix.
func ParseMeasurement(s string) (Measurement, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Measurement{}, false
	}
	m := measurementRe.FindStringSubmatch(s)
	if m == nil {
		return Measurement{}, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || math.IsNaN(v) {
		return Measurement{}, false
	}
	return Measurement{Value: v, Unit: strings.TrimSpace(m[2])}, true
}

// Scale factors per metric prefix. A value in a prefixed unit times its
// factor gives the value in the bare unit (0.1 kN × 1e3 = 100 N).
var metricPrefixes = map[string]float64{
	"g": 1e9,
	"m": 1e6,
	"k": 1e3,
	"d": 1e-1,
	"c": 1e-2,
	"µ": 1e-6,
	"u": 1e-6,
	"n": 1e-9,
}

func canonicalUnit(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if u == "%" {
		return "percent"
	}
	return u
}

// ConvertUnit converts value from one unit into another, handling the common
// case of a metric-prefixed variant of the same base unit (kN vs N). It
// returns NaN when the units are incompatible; callers must treat NaN as
// "not convertible", never store it.
func ConvertUnit(value float64, fromUnit, toUnit string) float64 {
	from := canonicalUnit(fromUnit)
	to := canonicalUnit(toUnit)

	// Bare numbers are accepted wherever percent/unitless is expected.
	if from == "" && (to == "" || to == "unitless" || to == "percent") {
		return value
	}
	if from == to {
		return value
	}
	if to != "" && to != "percent" && strings.HasSuffix(from, to) {
		if f, ok := metricPrefixes[strings.TrimSuffix(from, to)]; ok {
			return value * f
		}
	}
	if from != "" && strings.HasSuffix(to, from) {
		if f, ok := metricPrefixes[strings.TrimSuffix(to, from)]; ok {
			return value / f
		}
	}
	return math.NaN()
}
