package sources

import (
	"regexp"
	"strings"
	"time"
)

// Publishers state their cutoff date in a handful of recurring phrasings.
// The order matters: longer markers first so "data current through" wins
// over the bare "through".
var statedDateMarkers = []string{
	"data current through",
	"last updated",
	"updated:",
	"updated",
	"through",
	"as of",
}

var (
	longDateRe  = regexp.MustCompile(`(?i)^(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2}),?\s+(\d{4})`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	urlDateRe   = regexp.MustCompile(`(\d{4})[-_]?(\d{2})[-_]?(\d{2})`)
)

// findStatedDate scans free text for a cutoff-date phrase ("through
// August 24, 2026", "Last Updated: 8/24/2026") and returns it as
// YYYY-MM-DD.
func findStatedDate(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, marker := range statedDateMarkers {
		idx := 0
		for {
			pos := strings.Index(lower[idx:], marker)
			if pos < 0 {
				break
			}
			pos += idx
			rest := strings.TrimLeft(text[pos+len(marker):], " :\t\n")
			if date, ok := parseDatePrefix(rest); ok {
				return date, true
			}
			idx = pos + len(marker)
		}
	}
	return "", false
}

// findURLDate pulls a filename- or URL-encoded date (20260824,
// 2026-08-24, 2026_08_24) out of a URL, validating month and day ranges so
// an arbitrary 8-digit run does not pass as a date.
func findURLDate(rawURL string) (string, bool) {
	for _, m := range urlDateRe.FindAllStringSubmatch(rawURL, -1) {
		year, month, day := m[1], m[2], m[3]
		t, err := time.Parse("2006-01-02", year+"-"+month+"-"+day)
		if err != nil {
			continue
		}
		// Reject implausible years so version strings do not match.
		if t.Year() < 2000 || t.Year() > 2100 {
			continue
		}
		return t.Format("2006-01-02"), true
	}
	return "", false
}

func parseDatePrefix(text string) (string, bool) {
	if m := longDateRe.FindStringSubmatch(text); m != nil {
		month := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
		t, err := time.Parse("January 2 2006", month+" "+m[2]+" "+m[3])
		if err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	if m := slashDateRe.FindStringSubmatch(text); m != nil {
		t, err := time.Parse("1/2/2006", m[1]+"/"+m[2]+"/"+m[3])
		if err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	if m := isoDateRe.FindStringSubmatch(text); m != nil {
		t, err := time.Parse("2006-01-02", m[0])
		if err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// mostRecentWeekday returns the latest day on or before now that falls on
// wd. Weekly report publishers name their files after that day, so deriving
// it from the injected clock keeps URL construction testable.
func mostRecentWeekday(now time.Time, wd time.Weekday) time.Time {
	delta := int(now.Weekday() - wd)
	if delta < 0 {
		delta += 7
	}
	day := now.AddDate(0, 0, -delta)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}

// asOfFrom applies the date-derivation policy shared by every adapter:
// prefer the document's own stated text, fall back to a URL-encoded date,
// and otherwise report nothing. The current wall clock is never used.
func asOfFrom(text, rawURL string) *string {
	if date, ok := findStatedDate(text); ok {
		return &date
	}
	if date, ok := findURLDate(rawURL); ok {
		return &date
	}
	return nil
}
