package sources

import (
	"strings"
	"unicode"
)

// parseInt parses a bare integer token, stripping thousands separators.
// Anything that is not digits-and-commas is rejected rather than coerced.
func parseInt(tok string) (int, bool) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return 0, false
	}
	n := 0
	digits := 0
	for _, r := range tok {
		if r == ',' && digits > 0 {
			continue
		}
		if !unicode.IsDigit(r) {
			return 0, false
		}
		n = n*10 + int(r-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	return n, true
}

// normalizeLabel lowercases a label and drops every non-alphanumeric rune,
// so "Non-Fatal Shooting", "Non Fatal Shooting", and "NON-FATAL SHOOTING"
// all normalize identically.
func normalizeLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// findLabel locates label (given as space-separated words, fuzzy-separator
// tolerant) inside the token stream and returns the index of the first token
// after it.
func findLabel(tokens []string, label string) (int, bool) {
	target := normalizeLabel(label)
	if target == "" {
		return 0, false
	}

	for i := range tokens {
		var acc strings.Builder
		for j := i; j < len(tokens); j++ {
			acc.WriteString(normalizeLabel(tokens[j]))
			if acc.Len() < len(target) {
				if !strings.HasPrefix(target, acc.String()) {
					break
				}
				continue
			}
			if acc.String() == target {
				return j + 1, true
			}
			break
		}
	}
	return 0, false
}

// collectIntegers gathers up to want integer tokens starting at start.
// A few non-integer tokens before the first integer are skipped (stray
// separators between a label and its columns); once collection has begun,
// the first non-integer token ends the row.
func collectIntegers(tokens []string, start, want int) []int {
	const maxLeadingSkip = 4
	var out []int
	skipped := 0
	for i := start; i < len(tokens) && len(out) < want; i++ {
		n, ok := parseInt(tokens[i])
		if ok {
			out = append(out, n)
			continue
		}
		if len(out) > 0 {
			break
		}
		skipped++
		if skipped > maxLeadingSkip {
			break
		}
	}
	return out
}

// labelRow is the primary text-table strategy: locate the label, then map
// the following integers onto fixed column positions.
func labelRow(tokens []string, label string, columns int) ([]int, bool) {
	start, ok := findLabel(tokens, label)
	if !ok {
		return nil, false
	}
	ints := collectIntegers(tokens, start, columns)
	if len(ints) < columns {
		return nil, false
	}
	return ints, true
}

// lineScan is the secondary heuristic: scan raw lines for one starting with
// the label and pull bare integers off that line.
func lineScan(lines []string, label string, want int) ([]int, bool) {
	target := normalizeLabel(label)
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		var acc strings.Builder
		consumed := 0
		for _, f := range fields {
			acc.WriteString(normalizeLabel(f))
			consumed++
			if acc.Len() >= len(target) {
				break
			}
		}
		if acc.String() != target {
			continue
		}
		ints := collectIntegers(fields, consumed, want)
		if len(ints) >= want {
			return ints, true
		}
	}
	return nil, false
}

// yearValue is the loosest fallback: a "YEAR VALUE" pair anywhere in the
// token stream, for selector-style tables that render one row per year.
func yearValue(tokens []string, year string) (int, bool) {
	for i, tok := range tokens {
		if tok != year {
			continue
		}
		if ints := collectIntegers(tokens, i+1, 1); len(ints) == 1 {
			return ints[0], true
		}
	}
	return 0, false
}

// excerpt returns a short diagnostic slice of the token stream for error
// messages.
func excerpt(tokens []string) string {
	const maxTokens = 20
	if len(tokens) > maxTokens {
		tokens = tokens[:maxTokens]
	}
	return strings.Join(tokens, " ")
}
