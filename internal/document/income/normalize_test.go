package income

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const certificateText = `GOVERNMENT OF MAHARASHTRA
Income Certificate
Certificate No: 1234567890
Name: Ramesh Patil
Annual Income: Rs. 4,20,000
Issued on 12/05/2023 by Tehsildar`

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		rawValue string
		rawText  string
		want     int64
	}{
		{"labeled amount beside an unrelated certificate number", "", certificateText, 420000},
		{"extracted value only", "₹ 1,80,000", "", 180000},
		{"extracted value with suffix", "Rs.120000/-", "", 120000},
		{"identifier in extracted value is ignored", "MH-IC-12345", "", 0},
		{"marathi label", "", "वार्षिक उत्पन्न : रु. 95,000 फक्त", 95000},
		{"hindi label", "", "वार्षिक आय ₹ 2,10,500", 210500},
		{"OCR split digit groups", "", "Annual Income: 3 60 000", 360000},
		{"year beside the label is not income", "", "Annual income for 2023: Rs 1,50,000", 150000},
		{"unlabeled currency amount", "", "Total Rs. 75,000 received", 75000},
		{"barcode-length runs discarded", "", "Annual Income 987654321012345", 0},
		{"amount below plausible bound", "", "Annual Income: Rs 500", 0},
		{"no candidates", "", "This certificate is issued for scholarship purposes.", 0},
		{"empty input", "", "", 0},
		{"hyphenated reference number is not an amount", "", "Annual Income Ref IC-2023-556677", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.rawValue, tt.rawText)
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "got %s want %d", got, tt.want)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []struct{ rawValue, rawText string }{
		{"", certificateText},
		{"₹ 1,80,000", ""},
		{"", "वार्षिक उत्पन्न : रु. 95,000"},
		{"", "Annual Income: 3 60 000"},
		{"", "nothing here"},
	}
	for _, in := range inputs {
		first := Normalize(in.rawValue, in.rawText)
		assert.True(t, first.Equal(Normalize(first.String(), "")), "plain form of %s", first)
		assert.True(t, first.Equal(Normalize("", FormatINR(first))) || first.IsZero(), "formatted form of %s", first)
	}
}

func TestNearestLabelWins(t *testing.T) {
	text := "Annual Income: 1,20,000 ... office deposit Rs. 9,00,000"
	assert.True(t, Normalize("", text).Equal(decimal.NewFromInt(120000)))
}

func TestTieBreakPrefersLargest(t *testing.T) {
	got, ok := choose([]Candidate{
		{Value: decimal.NewFromInt(50000), Distance: 3},
		{Value: decimal.NewFromInt(90000), Distance: 3},
		{Value: decimal.NewFromInt(990000), Distance: 40},
	})
	require.True(t, ok)
	assert.True(t, got.Value.Equal(decimal.NewFromInt(90000)))
}

func TestFilters(t *testing.T) {
	c := func(v int64) Candidate { return Candidate{Value: decimal.NewFromInt(v)} }

	bounded := BoundedMagnitude{}.Apply([]Candidate{c(999), c(1000), c(10000000), c(10000001)})
	assert.Len(t, bounded, 2)

	years := NotCalendarYear{}.Apply([]Candidate{c(2023), c(45000)})
	require.Len(t, years, 1)
	assert.True(t, years[0].Value.Equal(decimal.NewFromInt(45000)))

	onlyYear := NotCalendarYear{}.Apply([]Candidate{c(2023)})
	assert.Len(t, onlyYear, 1, "a lone year-like amount is kept")
}

func TestStrategiesIndependently(t *testing.T) {
	assert.Len(t, ExtractedValue{}.Candidates("", "Rs. 5,000"), 0)
	assert.Len(t, CurrencyMarker{}.Candidates("", "Annual Income 45000"), 0)

	window := LabeledWindow{}.Candidates("", "Annual Income 45000")
	require.Len(t, window, 1)
	assert.Equal(t, 1, window[0].Distance)
}

func TestParseAmount(t *testing.T) {
	tests := map[string]int64{
		"4,20,000":      420000,
		"₹4,20,000":     420000,
		"Rs 1,50,000":   150000,
		"1,50,000.00":   150000,
		"":              0,
		"nil":           0,
		"AB1234":        0,
		"12345678901":   0,
		"-":             0,
		"Rs. 2,40,000/": 240000,
	}
	for in, want := range tests {
		assert.True(t, ParseAmount(in).Equal(decimal.NewFromInt(want)), "ParseAmount(%q) = %s", in, ParseAmount(in))
	}
}

func TestFormatINR(t *testing.T) {
	tests := map[int64]string{
		0:        "₹ 0",
		999:      "₹ 999",
		1000:     "₹ 1,000",
		250000:   "₹ 2,50,000",
		420000:   "₹ 4,20,000",
		10000000: "₹ 1,00,00,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatINR(decimal.NewFromInt(in)))
	}
}
