package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/browser"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// New Orleans publishes its weekly crime brief as a scanned PDF. The text
// layer is absent, so the document is rendered in the browser's built-in
// viewer and the shooting row is read from a screenshot.
const nolaReportURL = "https://nola.gov/nopd/crime-data/weekly-crime-brief.pdf"

// NewOrleans builds the neworleans source adapter.
func NewOrleans(deps Deps) dashboard.Source {
	return dashboard.Source{
		Name:    "neworleans",
		Timeout: 90 * time.Second,
		Run: func(ctx context.Context) (dashboard.SourceResult, error) {
			return runNewOrleans(ctx, deps)
		},
	}
}

func runNewOrleans(ctx context.Context, deps Deps) (dashboard.SourceResult, error) {
	session, err := deps.Browser.NewSession(ctx)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("neworleans: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, nolaReportURL); err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("neworleans: %w", err)
	}

	// The PDF viewer paints asynchronously after the navigation settles.
	steps := []browser.Step{
		browser.Sleep("render-pdf", 4*time.Second),
	}
	if err := browser.RunSteps(ctx, session, deps.Logger, steps); err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("neworleans: %w", err)
	}

	shot, err := session.Screenshot(ctx)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("neworleans: %w", err)
	}
	saveArtifact(ctx, deps, "neworleans/report.png", "image/png", shot)

	prompt := "This is a police weekly crime report. Find the row for shooting incidents or shooting victims. " +
		"Read the year-to-date count for the current year and, if shown, the prior year's count for the same period, " +
		"plus the report's through or as-of date. " +
		"Reply with ONLY: YTD=N PRIOR=N ASOF=YYYY-MM-DD (omit PRIOR or ASOF if not shown)."

	reply, err := deps.Vision.Ask(ctx, shot, "image/png", prompt)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("neworleans: %w", err)
	}

	return parseNewOrleansReply(reply)
}

func parseNewOrleansReply(reply string) (dashboard.SourceResult, error) {
	values, err := parseOracleCounts("neworleans", reply, "YTD", "PRIOR")
	if err != nil {
		return dashboard.SourceResult{}, err
	}
	result := dashboard.SourceResult{YTD: values["YTD"]}
	if prior, ok := values["PRIOR"]; ok {
		result.Prior = dashboard.IntPtr(prior)
	}
	result.AsOf = oracleDate(reply)
	return result, nil
}
