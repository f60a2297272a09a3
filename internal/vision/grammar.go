package vision

import (
	"strings"
	"unicode"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// ParseKeyValues extracts KEY=INTEGER tokens from an oracle reply.
//
// The reply grammar shared by every vision prompt is a set of KEY=N pairs in
// any order; surrounding prose is ignored. Extraction is anchored substring
// search on "KEY=" rather than free-form regex, so a reply like
// "Sure! 2025=20 2026=30" still parses. Thousands separators are stripped.
// A missing required key is a ParseError naming the source and carrying a
// reply excerpt.
func ParseKeyValues(source, reply string, required []string, optional []string) (map[string]int, error) {
	values := make(map[string]int)
	var missing []string

	for _, key := range required {
		n, ok := findValue(reply, key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		values[key] = n
	}
	for _, key := range optional {
		if n, ok := findValue(reply, key); ok {
			values[key] = n
		}
	}

	if len(missing) > 0 {
		return nil, dashboard.NewParseError(
			source,
			"oracle reply missing required keys "+strings.Join(missing, ","),
			reply,
		)
	}
	return values, nil
}

// FindDate extracts a KEY=YYYY-MM-DD token from an oracle reply, returning
// false when absent or malformed. Dates are optional in every prompt, so a
// bad date never fails the extraction.
func FindDate(reply, key string) (string, bool) {
	rest, ok := anchor(reply, key)
	if !ok {
		return "", false
	}
	rest = strings.TrimLeft(rest, " ")
	if len(rest) < 10 {
		return "", false
	}
	candidate := rest[:10]
	for i, r := range candidate {
		if i == 4 || i == 7 {
			if r != '-' {
				return "", false
			}
			continue
		}
		if !unicode.IsDigit(r) {
			return "", false
		}
	}
	return candidate, true
}

func findValue(reply, key string) (int, bool) {
	rest, ok := anchor(reply, key)
	if !ok {
		return 0, false
	}

	rest = strings.TrimLeft(rest, " ")
	var digits strings.Builder
	for _, r := range rest {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
			continue
		}
		if r == ',' && digits.Len() > 0 {
			// thousands separator inside the number
			continue
		}
		break
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n := 0
	for _, r := range digits.String() {
		n = n*10 + int(r-'0')
	}
	return n, true
}

// anchor locates "KEY=" in the reply and returns everything after it. The
// match must not be preceded by an alphanumeric rune, so key "2025" does not
// anchor inside "YTD2025=".
func anchor(reply, key string) (string, bool) {
	needle := key + "="
	for start := 0; ; {
		idx := strings.Index(reply[start:], needle)
		if idx < 0 {
			return "", false
		}
		idx += start
		if idx == 0 || !isWordRune(rune(reply[idx-1])) {
			return reply[idx+len(needle):], true
		}
		start = idx + len(needle)
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
