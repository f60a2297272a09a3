// Package dashboard defines core types shared across subsystems.
package dashboard

import (
	"context"
	"time"
)

// SourceResult is the normalized output of one adapter invocation.
type SourceResult struct {
	// YTD is the current year-to-date count. Always >= 0.
	YTD int `json:"ytd"`
	// Prior is the same count for the equivalent period of the preceding
	// year. Nil when the publisher does not expose it; never a guess.
	Prior *int `json:"prior"`
	// AsOf is the publication's stated cutoff date (YYYY-MM-DD). Nil when
	// undiscoverable. Never derived from the current wall clock.
	AsOf *string `json:"asof"`
}

// SourceRecord is the persisted wrapper around a SourceResult.
type SourceRecord struct {
	OK        bool      `json:"ok"`
	YTD       *int      `json:"ytd,omitempty"`
	Prior     *int      `json:"prior,omitempty"`
	AsOf      *string   `json:"asof,omitempty"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// SuccessRecord wraps a SourceResult for persistence.
func SuccessRecord(res SourceResult, fetchedAt time.Time) SourceRecord {
	ytd := res.YTD
	return SourceRecord{
		OK:        true,
		YTD:       &ytd,
		Prior:     res.Prior,
		AsOf:      res.AsOf,
		FetchedAt: fetchedAt,
	}
}

// FailureRecord captures a per-source failure without aborting the batch.
func FailureRecord(cause string, fetchedAt time.Time) SourceRecord {
	return SourceRecord{
		OK:        false,
		Error:     cause,
		FetchedAt: fetchedAt,
	}
}

// Source binds a publisher adapter to its identifier and timeout budget.
// Run closes over the publisher's fixed URL and selectors; it either returns
// a fully-populated SourceResult or a descriptive error.
type Source struct {
	Name    string
	Timeout time.Duration
	Run     func(ctx context.Context) (SourceResult, error)
}

// Clock returns the current time. Adapters receive it injected so date math
// ("most recent Thursday", year strings) is testable with a fixed instant.
type Clock interface {
	Now() time.Time
}

// IntPtr returns a pointer to v. Convenience for optional result fields.
func IntPtr(v int) *int {
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
