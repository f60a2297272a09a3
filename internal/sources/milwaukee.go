package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/browser"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// Milwaukee serves a server-rendered crime-statistics page. The numbers are
// ordinary DOM text once the page loads, so a single navigation and a body
// read is enough.
const milwaukeeStatsURL = "https://city.milwaukee.gov/police/Information/Crime-Statistics"

// Milwaukee builds the milwaukee source adapter.
func Milwaukee(deps Deps) dashboard.Source {
	return dashboard.Source{
		Name:    "milwaukee",
		Timeout: 60 * time.Second,
		Run: func(ctx context.Context) (dashboard.SourceResult, error) {
			return runMilwaukee(ctx, deps)
		},
	}
}

func runMilwaukee(ctx context.Context, deps Deps) (dashboard.SourceResult, error) {
	session, err := deps.Browser.NewSession(ctx)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("milwaukee: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, milwaukeeStatsURL); err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("milwaukee: %w", err)
	}

	steps := []browser.Step{
		browser.WaitVisible("stats-table", ".crime-stats-table", 15*time.Second, browser.Continue),
	}
	if err := browser.RunSteps(ctx, session, deps.Logger, steps); err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("milwaukee: %w", err)
	}

	body, err := session.BodyText(ctx)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("milwaukee: %w", err)
	}

	return parseMilwaukeeBody(body)
}

// parseMilwaukeeBody extracts the shooting row from the rendered page text.
// The table lays out as "Non-Fatal Shooting <current> <prior>" with the
// page's "Updated:" line carrying the as-of date.
func parseMilwaukeeBody(body string) (dashboard.SourceResult, error) {
	tokens := strings.Fields(body)

	for _, label := range []string{"non-fatal shooting", "nonfatal shootings", "shooting victims", "shootings"} {
		ints, ok := labelRow(tokens, label, 2)
		if ok {
			return dashboard.SourceResult{
				YTD:   ints[0],
				Prior: dashboard.IntPtr(ints[1]),
				AsOf:  asOfFrom(body, ""),
			}, nil
		}
		if ints, ok = labelRow(tokens, label, 1); ok {
			return dashboard.SourceResult{
				YTD:  ints[0],
				AsOf: asOfFrom(body, ""),
			}, nil
		}
	}

	return dashboard.SourceResult{}, dashboard.NewParseError("milwaukee", "no shooting row in page text", excerpt(tokens))
}
