package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/browser"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// Chicago's violence-reduction dashboard hides its numbers inside canvas
// widgets, but the toolbar exposes a CSV export of the underlying table.
// Driving the export is far more stable than scraping the widgets.
const chicagoDashboardURL = "https://www.chicago.gov/city/en/sites/vrd/home.html"

// Chicago builds the chicago source adapter.
func Chicago(deps Deps) dashboard.Source {
	return dashboard.Source{
		Name:    "chicago",
		Timeout: 120 * time.Second,
		Run: func(ctx context.Context) (dashboard.SourceResult, error) {
			return runChicago(ctx, deps)
		},
	}
}

func runChicago(ctx context.Context, deps Deps) (dashboard.SourceResult, error) {
	session, err := deps.Browser.NewSession(ctx)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("chicago: %w", err)
	}
	defer session.Close()

	if err := session.Navigate(ctx, chicagoDashboardURL); err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("chicago: %w", err)
	}

	// The filter steps narrow the export to citywide shooting rows. Each is
	// best-effort: when the dashboard ships with the right defaults the
	// selectors may be absent, and the export is still usable.
	steps := []browser.Step{
		browser.Click("dismiss-banner", ".cookie-banner .accept", 5*time.Second, browser.Continue),
		browser.Click("citywide-scope", "#scope-citywide", 10*time.Second, browser.Continue),
		browser.Click("victims-tab", "#tab-victims", 10*time.Second, browser.Continue),
		browser.Sleep("refresh", 2*time.Second),
		browser.WaitVisible("export-ready", "#export-csv", 15*time.Second, browser.Abort),
	}
	if err := browser.RunSteps(ctx, session, deps.Logger, steps); err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("chicago: %w", err)
	}

	export := []browser.Step{
		browser.Click("export", "#export-csv", 10*time.Second, browser.Abort),
	}
	data, name, err := session.CaptureDownload(ctx, func(ctx context.Context) error {
		return browser.RunSteps(ctx, session, deps.Logger, export)
	}, 30*time.Second)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("chicago: export download: %w", err)
	}
	saveArtifact(ctx, deps, "chicago/"+name, "text/csv", data)

	result, err := parseChicagoCSV(data)
	if err != nil {
		return dashboard.SourceResult{}, err
	}
	if result.AsOf == nil {
		if date, ok := findURLDate(name); ok {
			result.AsOf = dashboard.StringPtr(date)
		}
	}
	return result, nil
}

// parseChicagoCSV reads the exported category table. The export repeats a
// category row once per applied filter, so only the first occurrence of
// each category is counted.
func parseChicagoCSV(data []byte) (dashboard.SourceResult, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return dashboard.SourceResult{}, dashboard.NewParseError("chicago", "empty or unreadable CSV export", string(data))
	}

	catCol, curCol, priorCol := chicagoColumns(header)
	if catCol < 0 || curCol < 0 {
		return dashboard.SourceResult{}, dashboard.NewParseError("chicago", "export missing category or current-year column", strings.Join(header, ","))
	}

	total := 0
	prior := 0
	havePrior := false
	matched := false
	seen := make(map[string]bool)

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dashboard.SourceResult{}, dashboard.NewParseError("chicago", "malformed CSV row", err.Error())
		}
		if catCol >= len(row) || curCol >= len(row) {
			continue
		}
		category := strings.TrimSpace(row[catCol])
		key := strings.ToLower(category)
		if seen[key] {
			continue
		}
		seen[key] = true
		if !strings.Contains(key, "shooting") {
			continue
		}
		cur, ok := parseInt(row[curCol])
		if !ok {
			return dashboard.SourceResult{}, dashboard.NewParseError("chicago", fmt.Sprintf("non-numeric count for %q", category), strings.Join(row, ","))
		}
		total += cur
		matched = true
		if priorCol >= 0 && priorCol < len(row) {
			if p, ok := parseInt(row[priorCol]); ok {
				prior += p
				havePrior = true
			}
		}
	}

	if !matched {
		return dashboard.SourceResult{}, dashboard.NewParseError("chicago", "no shooting category in export", strings.Join(header, ","))
	}

	result := dashboard.SourceResult{YTD: total}
	if havePrior {
		result.Prior = dashboard.IntPtr(prior)
	}
	return result, nil
}

// chicagoColumns finds the category, current-year, and prior-year column
// indexes. Year columns are detected by header text rather than position
// because the export reorders columns between dashboard releases.
func chicagoColumns(header []string) (cat, cur, prior int) {
	cat, cur, prior = -1, -1, -1
	years := make([]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(name, "category") || strings.Contains(name, "type"):
			if cat < 0 {
				cat = i
			}
		default:
			if y, ok := parseInt(name); ok && y >= 2000 && y <= 2100 {
				years[i] = y
			}
		}
	}
	// The largest year header is the current year; the next-largest is the
	// comparison year.
	curYear, priorYear := 0, 0
	for i, y := range years {
		if y == 0 {
			continue
		}
		switch {
		case y > curYear:
			priorYear, prior = curYear, cur
			curYear, cur = y, i
		case y > priorYear:
			priorYear, prior = y, i
		}
	}
	return cat, cur, prior
}
