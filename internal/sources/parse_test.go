package sources

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"120", 120, true},
		{"1,204", 1204, true},
		{"0", 0, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{",", 0, false},
		{",5", 0, false},
		{"12a", 0, false},
		{"-5", 0, false},
		{"3.14", 0, false},
	}
	for _, tc := range tests {
		got, ok := parseInt(tc.in)
		assert.Equal(t, tc.ok, ok, "parseInt(%q) ok", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "parseInt(%q)", tc.in)
		}
	}
}

func TestFindLabelFuzzySeparators(t *testing.T) {
	t.Parallel()

	tokens := strings.Fields("Weekly Report Non-Fatal Shooting 5 30 120 145 Homicide 2 8 40 52")

	tests := []struct {
		label string
		next  string
	}{
		{"Non-Fatal Shooting", "5"},
		{"non fatal shooting", "5"},
		{"NONFATAL SHOOTING", "5"},
		{"Homicide", "2"},
	}
	for _, tc := range tests {
		idx, ok := findLabel(tokens, tc.label)
		require.True(t, ok, "findLabel(%q)", tc.label)
		assert.Equal(t, tc.next, tokens[idx], "token after %q", tc.label)
	}

	_, ok := findLabel(tokens, "Robbery")
	assert.False(t, ok)
}

func TestLabelRowFourColumnTable(t *testing.T) {
	t.Parallel()

	// Week / Month / YTD / Prior-YTD layout: the shooting row reads
	// current YTD from column 3 and the prior-year figure from column 4.
	tokens := strings.Fields("Non-Fatal Shooting 5 30 120 145 Homicide 2 8 40 52")

	ints, ok := labelRow(tokens, "non-fatal shooting", 4)
	require.True(t, ok)
	assert.Equal(t, []int{5, 30, 120, 145}, ints)
	assert.Equal(t, 120, ints[2])
	assert.Equal(t, 145, ints[3])
}

func TestLabelRowStopsAtNonInteger(t *testing.T) {
	t.Parallel()

	tokens := strings.Fields("Shooting Victims 120 145 Homicide 40")

	_, ok := labelRow(tokens, "shooting victims", 3)
	assert.False(t, ok, "row must end at the next label, not borrow its numbers")

	ints, ok := labelRow(tokens, "shooting victims", 2)
	require.True(t, ok)
	assert.Equal(t, []int{120, 145}, ints)
}

func TestCollectIntegersLeadingSkipBounded(t *testing.T) {
	t.Parallel()

	tokens := strings.Fields("Label : a b 42 7")
	ints := collectIntegers(tokens, 1, 2)
	assert.Equal(t, []int{42, 7}, ints, "a few separator tokens before the first integer are tolerated")

	far := strings.Fields("Label one two three four five 42")
	assert.Empty(t, collectIntegers(far, 1, 1), "integers too far past the label are not claimed")
}

func TestLineScan(t *testing.T) {
	t.Parallel()

	lines := []string{
		"City of Baltimore Weekly Crime Report",
		"Non-Fatal Shooting 120 145",
		"Homicide 40 52",
	}

	ints, ok := lineScan(lines, "non-fatal shooting", 2)
	require.True(t, ok)
	assert.Equal(t, []int{120, 145}, ints)

	_, ok = lineScan(lines, "robbery", 2)
	assert.False(t, ok)
}

func TestYearValue(t *testing.T) {
	t.Parallel()

	tokens := strings.Fields("Shootings by year 2024 310 2025 204")

	got, ok := yearValue(tokens, "2025")
	require.True(t, ok)
	assert.Equal(t, 204, got)

	got, ok = yearValue(tokens, "2024")
	require.True(t, ok)
	assert.Equal(t, 310, got)

	_, ok = yearValue(tokens, "2023")
	assert.False(t, ok)
}

func TestExcerptClipsLongStreams(t *testing.T) {
	t.Parallel()

	tokens := make([]string, 50)
	for i := range tokens {
		tokens[i] = "tok"
	}
	got := excerpt(tokens)
	assert.Len(t, strings.Fields(got), 20)
}
