package income

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// labelPattern matches income labels in English, Hindi and Marathi.
var labelPattern = regexp.MustCompile(`(?i)(annual\s*income|annual_income|वार्षिक\s*आय|वार्षिक\s*उत्पन्न|उत्पन्न|आय)`)

var currencyMarkers = []string{"₹", "Rs", "RS", "rs", "INR", "रु", "रू"}

// maxDigits bounds the integer part of a plausible amount; longer runs are
// certificate numbers, account numbers or barcodes.
const maxDigits = 9

// span is a half-open rune range.
type span struct {
	start, end int
}

// numericRun is a run of digits and thousands separators.
type numericRun struct {
	span
	digits string
}

func (r numericRun) value() (decimal.Decimal, bool) {
	if r.digits == "" || len(r.digits) > maxDigits {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(r.digits)
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// labelSpans returns the rune spans of every income label in text.
func labelSpans(text string) []span {
	var spans []span
	for _, m := range labelPattern.FindAllStringIndex(text, -1) {
		spans = append(spans, span{
			start: utf8.RuneCountInString(text[:m[0]]),
			end:   utf8.RuneCountInString(text[:m[1]]),
		})
	}
	return spans
}

// numericRuns finds maximal digit/comma runs. Trailing separators are not
// part of the run.
func numericRuns(s []rune) []numericRun {
	var runs []numericRun
	for i := 0; i < len(s); {
		if !isDigit(s[i]) {
			i++
			continue
		}
		start := i
		var b strings.Builder
		lastDigit := i
		for i < len(s) && (isDigit(s[i]) || s[i] == ',') {
			if isDigit(s[i]) {
				b.WriteRune(s[i])
				lastDigit = i
			}
			i++
		}
		runs = append(runs, numericRun{span: span{start: start, end: lastDigit + 1}, digits: b.String()})
	}
	return runs
}

// joinSplitDigits removes whitespace between two digits, undoing OCR that
// split "4 20 000" into groups.
func joinSplitDigits(s []rune) []rune {
	out := make([]rune, 0, len(s))
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) && len(out) > 0 && isDigit(out[len(out)-1]) {
			j := i
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && isDigit(s[j]) {
				i = j - 1
				continue
			}
		}
		out = append(out, s[i])
	}
	return out
}

// currencyBefore reports whether a currency marker sits right before start,
// allowing separators such as "Rs. " or "₹:".
func currencyBefore(s []rune, start int) bool {
	i := start
	for skipped := 0; i > 0 && skipped < 3 && (isSpace(s[i-1]) || s[i-1] == '.' || s[i-1] == ':'); skipped++ {
		i--
	}
	prefix := string(s[max(0, i-3):i])
	for _, m := range currencyMarkers {
		if strings.HasSuffix(prefix, m) {
			return true
		}
	}
	return false
}

// looksLikeIdentifier reports whether the run is glued to letters or joined
// by - or / to other alphanumerics, as in "MH-IC-12345", "12345A" or
// "2023/118". A leading currency marker overrides the check.
func looksLikeIdentifier(s []rune, r numericRun) bool {
	if r.start > 0 {
		p := s[r.start-1]
		switch {
		case isLetter(p):
			if !currencyBefore(s, r.start) {
				return true
			}
		case (p == '-' || p == '/') && r.start > 1 && isAlnum(s[r.start-2]):
			return true
		}
	}
	if r.end < len(s) {
		n := s[r.end]
		switch {
		case isLetter(n):
			return true
		case (n == '-' || n == '/') && r.end+1 < len(s) && isAlnum(s[r.end+1]):
			return true
		}
	}
	return false
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
func isAlnum(r rune) bool  { return isDigit(r) || isLetter(r) }
func isSpace(r rune) bool  { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
