package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/browser"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// Memphis buries its shooting table behind a tabbed public-safety portal.
// The table is plain DOM text once the right tab is open, so the primary
// path reads the rendered body. When the portal redesign breaks the tab
// selectors the adapter falls back to reading a screenshot.
const memphisPortalURL = "https://data.memphistn.gov/public-safety/dashboard"

// Memphis builds the memphis source adapter.
func Memphis(deps Deps) dashboard.Source {
	return dashboard.Source{
		Name:    "memphis",
		Timeout: 120 * time.Second,
		Run: func(ctx context.Context) (dashboard.SourceResult, error) {
			return runMemphis(ctx, deps)
		},
	}
}

func runMemphis(ctx context.Context, deps Deps) (dashboard.SourceResult, error) {
	session, err := deps.Browser.NewSession(ctx)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("memphis: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, memphisPortalURL); err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("memphis: %w", err)
	}

	// All tab steps continue on failure: a missed click degrades the body
	// text but the screenshot fallback still has a chance.
	steps := []browser.Step{
		browser.Click("crime-section", "a[href='#crime']", 10*time.Second, browser.Continue),
		browser.Click("shootings-tab", "#tab-shootings", 10*time.Second, browser.Continue),
		browser.Click("ytd-view", "#view-ytd", 10*time.Second, browser.Continue),
		browser.Sleep("settle", 2*time.Second),
	}
	if err := browser.RunSteps(ctx, session, deps.Logger, steps); err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("memphis: %w", err)
	}

	body, err := session.BodyText(ctx)
	if err == nil {
		if result, perr := parseMemphisBody(body); perr == nil {
			return result, nil
		} else {
			deps.Logger.Warn("memphis: body text parse failed, falling back to vision", zap.Error(perr))
		}
	} else {
		deps.Logger.Warn("memphis: body text read failed, falling back to vision", zap.Error(err))
	}

	shot, err := session.Screenshot(ctx)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("memphis: %w", err)
	}
	saveArtifact(ctx, deps, "memphis/dashboard.png", "image/png", shot)

	prompt := "This is a city public-safety dashboard. Find the year-to-date shooting incident or shooting victim count " +
		"for the current year and, if shown, the prior year's count for the same period, plus the data as-of date. " +
		"Reply with ONLY: YTD=N PRIOR=N ASOF=YYYY-MM-DD (omit PRIOR or ASOF if not shown)."

	reply, err := deps.Vision.Ask(ctx, shot, "image/png", prompt)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("memphis: %w", err)
	}

	values, err := parseOracleCounts("memphis", reply, "YTD", "PRIOR")
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

// parseMemphisBody scans the rendered portal text for the shooting row.
// The table renders as "Shooting Victims <current> <prior>" once the YTD
// view is active.
func parseMemphisBody(body string) (dashboard.SourceResult, error) {
	tokens := strings.Fields(body)

	for _, label := range []string{"shooting victims ytd", "shooting victims", "shootings ytd", "shootings"} {
		ints, ok := labelRow(tokens, label, 2)
		if ok {
			result := dashboard.SourceResult{YTD: ints[0], Prior: dashboard.IntPtr(ints[1])}
			result.AsOf = asOfFrom(body, "")
			return result, nil
		}
		if ints, ok = labelRow(tokens, label, 1); ok {
			result := dashboard.SourceResult{YTD: ints[0]}
			result.AsOf = asOfFrom(body, "")
			return result, nil
		}
	}

	return dashboard.SourceResult{}, dashboard.NewParseError("memphis", "no shooting row in portal text", excerpt(tokens))
}
