package income

import (
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Candidate is one amount found by a strategy. Distance is the rune distance
// to the nearest income label; unlabeled candidates carry noLabel.
type Candidate struct {
	Value    decimal.Decimal
	Distance int
	Source   string
}

const noLabel = math.MaxInt32

// Window sizes around an income label, in runes.
const (
	windowBefore = 20
	windowAfter  = 120
)

// Strategy proposes candidate amounts from an extracted field value and the
// document's raw text.
type Strategy interface {
	Name() string
	Candidates(rawValue, rawText string) []Candidate
}

// ExtractedValue trusts the field value produced by structured extraction.
// It is the label's own value, so its distance is zero.
type ExtractedValue struct{}

func (ExtractedValue) Name() string { return "extracted_value" }

func (ExtractedValue) Candidates(rawValue, _ string) []Candidate {
	v := ParseAmount(rawValue)
	if v.IsZero() {
		return nil
	}
	return []Candidate{{Value: v, Distance: 0, Source: "extracted_value"}}
}

// LabeledWindow searches a fixed window around each income label.
type LabeledWindow struct{}

func (LabeledWindow) Name() string { return "labeled_window" }

func (LabeledWindow) Candidates(_, rawText string) []Candidate {
	if rawText == "" {
		return nil
	}
	text := []rune(rawText)
	var out []Candidate
	for _, label := range labelSpans(rawText) {
		from, to := widen(text, max(0, label.start-windowBefore), min(len(text), label.end+windowAfter))
		before := joinSplitDigits(text[from:label.start])
		after := joinSplitDigits(text[label.end:to])

		for _, r := range numericRuns(after) {
			if looksLikeIdentifier(after, r) {
				continue
			}
			if v, ok := r.value(); ok {
				out = append(out, Candidate{Value: v, Distance: r.start, Source: "labeled_window"})
			}
		}
		for _, r := range numericRuns(before) {
			if looksLikeIdentifier(before, r) {
				continue
			}
			if v, ok := r.value(); ok {
				out = append(out, Candidate{Value: v, Distance: len(before) - r.end, Source: "labeled_window"})
			}
		}
	}
	return out
}

// widen moves window edges outward so no numeric run is cut in half; a
// truncated certificate number must not read as a plausible amount.
func widen(text []rune, from, to int) (int, int) {
	for from > 0 && (isDigit(text[from-1]) || text[from-1] == ',') {
		from--
	}
	for to < len(text) && (isDigit(text[to]) || text[to] == ',') {
		to++
	}
	return from, to
}

// CurrencyMarker collects amounts directly preceded by a rupee marker
// anywhere in the text.
type CurrencyMarker struct{}

func (CurrencyMarker) Name() string { return "currency_marker" }

func (CurrencyMarker) Candidates(_, rawText string) []Candidate {
	if rawText == "" {
		return nil
	}
	text := []rune(rawText)
	labels := labelSpans(rawText)
	var out []Candidate
	for _, r := range numericRuns(text) {
		if !currencyBefore(text, r.start) || looksLikeIdentifier(text, r) {
			continue
		}
		v, ok := r.value()
		if !ok {
			continue
		}
		out = append(out, Candidate{Value: v, Distance: nearestLabel(labels, r.span), Source: "currency_marker"})
	}
	return out
}

func nearestLabel(labels []span, s span) int {
	best := noLabel
	for _, l := range labels {
		var d int
		switch {
		case s.start >= l.end:
			d = s.start - l.end
		case s.end <= l.start:
			d = l.start - s.end
		}
		best = min(best, abs(d))
	}
	return best
}

var (
	amountPattern     = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
	identifierPattern = regexp.MustCompile(`[A-Za-z]{2,}[- ]?\d`)
)

// ParseAmount parses a single loosely formatted amount such as "₹ 4,20,000",
// "Rs.120000/-" or "1,50,000.00". Values that look like identifiers, runs
// longer than nine digits and non-positive values yield zero.
func ParseAmount(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	if identifierPattern.MatchString(s) && !hasCurrencyMarker(s) {
		return decimal.Zero
	}
	for _, m := range amountPattern.FindAllString(s, -1) {
		intPart, frac, _ := strings.Cut(m, ".")
		intPart = strings.ReplaceAll(intPart, ",", "")
		if intPart == "" || len(intPart) > maxDigits {
			continue
		}
		num := intPart
		if frac != "" {
			num += "." + frac
		}
		v, err := decimal.NewFromString(num)
		if err != nil || !v.IsPositive() {
			continue
		}
		return v.Round(0)
	}
	return decimal.Zero
}

func hasCurrencyMarker(s string) bool {
	for _, m := range currencyMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
