package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/pdftext"
)

// Philadelphia publishes a weekly city-wide crime PDF named after the most
// recent Thursday. The shooting-victims row carries four columns:
// prior-day, prior-7-day, YTD-current, YTD-prior.
const phillyReportURLPattern = "https://www.phillypolice.com/assets/crime-maps-stats/CityWide-%s.pdf"

const (
	phillyLabel   = "shooting victims"
	phillyColumns = 4
)

// Philadelphia builds the philadelphia source adapter.
func Philadelphia(deps Deps) dashboard.Source {
	return dashboard.Source{
		Name:    "philadelphia",
		Timeout: 45 * time.Second,
		Run: func(ctx context.Context) (dashboard.SourceResult, error) {
			return runPhiladelphia(ctx, deps)
		},
	}
}

func runPhiladelphia(ctx context.Context, deps Deps) (dashboard.SourceResult, error) {
	reportDay := mostRecentWeekday(deps.Clock.Now(), time.Thursday)
	url := fmt.Sprintf(phillyReportURLPattern, reportDay.Format("20060102"))

	resp, err := deps.Fetcher.FetchOK(ctx, url, 30*time.Second)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("philadelphia: %w", err)
	}
	saveArtifact(ctx, deps, "philadelphia/"+reportDay.Format("20060102")+".pdf", "application/pdf", resp.Body)

	tokens, err := pdftext.DocumentTokens(resp.Body)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("philadelphia: %w", err)
	}

	result, err := parsePhiladelphia(tokens)
	if err != nil {
		return dashboard.SourceResult{}, err
	}
	result.AsOf = asOfFrom(strings.Join(tokens, " "), url)
	return result, nil
}

func parsePhiladelphia(tokens []string) (dashboard.SourceResult, error) {
	if ints, ok := labelRow(tokens, phillyLabel, phillyColumns); ok {
		return dashboard.SourceResult{
			YTD:   ints[2],
			Prior: dashboard.IntPtr(ints[3]),
		}, nil
	}

	// Fallback: the report occasionally drops the weekly columns and
	// renders just the two YTD figures after the label.
	if ints, ok := labelRow(tokens, phillyLabel, 2); ok {
		return dashboard.SourceResult{
			YTD:   ints[0],
			Prior: dashboard.IntPtr(ints[1]),
		}, nil
	}

	return dashboard.SourceResult{}, dashboard.NewParseError(
		"philadelphia",
		fmt.Sprintf("shooting victims row with %d columns not found", phillyColumns),
		excerpt(tokens),
	)
}
