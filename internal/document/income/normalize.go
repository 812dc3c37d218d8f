// Package income turns loosely formatted monetary text into one reliable
// annual-income amount.
//
// Candidates come from an ordered list of strategies, pass through filters,
// and the survivor nearest to an income label wins; ties go to the largest
// value. Zero means no plausible amount was found.
package income

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Filter drops implausible candidates.
type Filter interface {
	Name() string
	Apply([]Candidate) []Candidate
}

var (
	minPlausible = decimal.NewFromInt(1000)
	maxPlausible = decimal.NewFromInt(10000000)
)

// BoundedMagnitude keeps candidates between ₹1,000 and ₹1,00,00,000.
type BoundedMagnitude struct{}

func (BoundedMagnitude) Name() string { return "bounded_magnitude" }

func (BoundedMagnitude) Apply(in []Candidate) []Candidate {
	out := in[:0:0]
	for _, c := range in {
		if c.Value.GreaterThanOrEqual(minPlausible) && c.Value.LessThanOrEqual(maxPlausible) {
			out = append(out, c)
		}
	}
	return out
}

// NotCalendarYear drops bare years 1900-2099, unless nothing else is left.
type NotCalendarYear struct{}

func (NotCalendarYear) Name() string { return "not_calendar_year" }

func (NotCalendarYear) Apply(in []Candidate) []Candidate {
	out := in[:0:0]
	for _, c := range in {
		if !isCalendarYear(c.Value) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return in
	}
	return out
}

func isCalendarYear(v decimal.Decimal) bool {
	return v.IsInteger() && v.GreaterThanOrEqual(decimal.NewFromInt(1900)) && v.LessThanOrEqual(decimal.NewFromInt(2099))
}

// Normalizer runs strategies then filters and applies the tie-break.
type Normalizer struct {
	Strategies []Strategy
	Filters    []Filter
}

// Default returns the production strategy and filter order.
func Default() *Normalizer {
	return &Normalizer{
		Strategies: []Strategy{ExtractedValue{}, LabeledWindow{}, CurrencyMarker{}},
		Filters:    []Filter{BoundedMagnitude{}, NotCalendarYear{}},
	}
}

// Normalize returns the best annual-income amount or zero.
func (n *Normalizer) Normalize(rawValue, rawText string) decimal.Decimal {
	var candidates []Candidate
	for _, s := range n.Strategies {
		candidates = append(candidates, s.Candidates(rawValue, rawText)...)
	}
	for _, f := range n.Filters {
		candidates = f.Apply(candidates)
	}
	if best, ok := choose(candidates); ok {
		return best.Value
	}
	return decimal.Zero
}

// choose picks the candidate nearest to a label, then the largest.
func choose(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	sorted := append([]Candidate(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Distance != sorted[j].Distance {
			return sorted[i].Distance < sorted[j].Distance
		}
		return sorted[i].Value.GreaterThan(sorted[j].Value)
	})
	return sorted[0], true
}

var defaultNormalizer = Default()

// Normalize runs the default normalizer.
func Normalize(rawValue, rawText string) decimal.Decimal {
	return defaultNormalizer.Normalize(rawValue, rawText)
}

// FormatINR renders v in Indian digit grouping, e.g. "₹ 4,20,000".
func FormatINR(v decimal.Decimal) string {
	s := v.Round(0).Abs().String()
	sign := ""
	if v.IsNegative() {
		sign = "-"
	}
	if len(s) <= 3 {
		return "₹ " + sign + s
	}
	head, tail := s[:len(s)-3], s[len(s)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return "₹ " + sign + strings.Join(groups, ",") + "," + tail
}
