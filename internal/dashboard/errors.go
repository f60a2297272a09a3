package dashboard

import (
	"errors"
	"fmt"
	"time"
)

// NetworkError indicates the transport could not complete a request.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError indicates a per-source or per-step budget was exceeded.
type TimeoutError struct {
	Op     string
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	// Whole seconds, rounded up: a 500ms budget reads "1s", never "0s".
	secs := int((e.Budget + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("%s timed out after %ds", e.Op, secs)
}

// HTTPStatusError indicates a non-200 response where 200 was required.
type HTTPStatusError struct {
	URL    string
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Status, e.URL)
}

// ParseError indicates an expected pattern, label, or field count was not
// found in text, a table, or an oracle reply. Excerpt carries a short
// diagnostic slice of the input so operators can see what the page looked
// like when the layout drifted.
type ParseError struct {
	Source  string
	Detail  string
	Excerpt string
}

func (e *ParseError) Error() string {
	if e.Excerpt == "" {
		return fmt.Sprintf("%s: %s", e.Source, e.Detail)
	}
	return fmt.Sprintf("%s: %s (saw: %q)", e.Source, e.Detail, e.Excerpt)
}

// NavigationError indicates a browser-automation step could not locate or
// act on an expected UI element.
type NavigationError struct {
	Step string
	Err  error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation step %q failed: %v", e.Step, e.Err)
}

func (e *NavigationError) Unwrap() error { return e.Err }

// NewParseError builds a ParseError with the excerpt clipped to a sane length.
func NewParseError(source, detail, excerpt string) *ParseError {
	const maxExcerpt = 160
	if len(excerpt) > maxExcerpt {
		excerpt = excerpt[:maxExcerpt] + "..."
	}
	return &ParseError{Source: source, Detail: detail, Excerpt: excerpt}
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
