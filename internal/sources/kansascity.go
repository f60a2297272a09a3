package sources

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/pdftext"
)

// Kansas City names its weekly report after the Thursday it covers and
// keeps only a few weeks online. When the current week's file is not up
// yet, the previous week's is the freshest available; the as-of date comes
// from whichever URL actually resolved.
const kcReportURLPattern = "https://www.kcpd.org/media/weekly-reports/crime-summary-%s.pdf"

// KansasCity builds the kansascity source adapter.
func KansasCity(deps Deps) dashboard.Source {
	return dashboard.Source{
		Name:    "kansascity",
		Timeout: 60 * time.Second,
		Run: func(ctx context.Context) (dashboard.SourceResult, error) {
			return runKansasCity(ctx, deps)
		},
	}
}

func runKansasCity(ctx context.Context, deps Deps) (dashboard.SourceResult, error) {
	now := deps.Clock.Now()
	thursday := mostRecentWeekday(now, time.Thursday)

	var (
		body []byte
		url  string
	)
	for _, reportDay := range []time.Time{thursday, thursday.AddDate(0, 0, -7)} {
		candidate := fmt.Sprintf(kcReportURLPattern, reportDay.Format("2006-01-02"))
		resp, err := deps.Fetcher.FetchOK(ctx, candidate, 30*time.Second)
		if err != nil {
			var statusErr *dashboard.HTTPStatusError
			if errors.As(err, &statusErr) && statusErr.Status == 404 {
				continue
			}
			return dashboard.SourceResult{}, fmt.Errorf("kansascity: %w", err)
		}
		body = resp.Body
		url = candidate
		break
	}
	if body == nil {
		return dashboard.SourceResult{}, dashboard.NewParseError(
			"kansascity",
			"no weekly report found for the last two Thursdays",
			thursday.Format("2006-01-02"),
		)
	}
	saveArtifact(ctx, deps, "kansascity/"+url[strings.LastIndex(url, "/")+1:], "application/pdf", body)

	tokens, err := pdftext.DocumentTokens(body)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("kansascity: %w", err)
	}

	result, err := parseKansasCity(tokens, now.Year())
	if err != nil {
		return dashboard.SourceResult{}, err
	}
	if date, ok := findURLDate(url); ok {
		result.AsOf = &date
	}
	return result, nil
}

func parseKansasCity(tokens []string, year int) (dashboard.SourceResult, error) {
	// Primary: the citywide table row with YTD-current and YTD-prior.
	if ints, ok := labelRow(tokens, "shooting victims ytd", 2); ok {
		return dashboard.SourceResult{
			YTD:   ints[0],
			Prior: dashboard.IntPtr(ints[1]),
		}, nil
	}

	// Fallback: the year-comparison block renders one "YEAR VALUE" row per
	// year. Prior stays nil when only the current year's row is present.
	if ytd, ok := yearValue(tokens, strconv.Itoa(year)); ok {
		result := dashboard.SourceResult{YTD: ytd}
		if prior, ok := yearValue(tokens, strconv.Itoa(year-1)); ok {
			result.Prior = dashboard.IntPtr(prior)
		}
		return result, nil
	}

	return dashboard.SourceResult{}, dashboard.NewParseError(
		"kansascity",
		"shooting victims row not found by label or year fallback",
		excerpt(tokens),
	)
}
