package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/pdftext"
)

// Baltimore's weekly crime summary splits gun violence into separate
// "Non-Fatal Shooting" and "Homicide" rows, each with YTD-current and
// YTD-prior columns. The dashboard metric is victims struck, so the two
// rows are summed.
const baltimoreReportURL = "https://www.baltimorepolice.org/sites/default/files/crime-stats/weekly-crime-summary.pdf"

// Baltimore builds the baltimore source adapter.
func Baltimore(deps Deps) dashboard.Source {
	return dashboard.Source{
		Name:    "baltimore",
		Timeout: 45 * time.Second,
		Run: func(ctx context.Context) (dashboard.SourceResult, error) {
			return runBaltimore(ctx, deps)
		},
	}
}

func runBaltimore(ctx context.Context, deps Deps) (dashboard.SourceResult, error) {
	resp, err := deps.Fetcher.FetchOK(ctx, baltimoreReportURL, 30*time.Second)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("baltimore: %w", err)
	}
	saveArtifact(ctx, deps, "baltimore/weekly-crime-summary.pdf", "application/pdf", resp.Body)

	tokens, err := pdftext.DocumentTokens(resp.Body)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("baltimore: %w", err)
	}

	result, err := parseBaltimore(tokens)
	if err != nil {
		return dashboard.SourceResult{}, err
	}
	result.AsOf = asOfFrom(strings.Join(tokens, " "), baltimoreReportURL)
	return result, nil
}

func parseBaltimore(tokens []string) (dashboard.SourceResult, error) {
	nonFatal, nfOK := labelRow(tokens, "non-fatal shooting", 2)
	homicide, hOK := labelRow(tokens, "homicide", 2)
	if nfOK && hOK {
		return dashboard.SourceResult{
			YTD:   nonFatal[0] + homicide[0],
			Prior: dashboard.IntPtr(nonFatal[1] + homicide[1]),
		}, nil
	}

	// Fallback: line-by-line scan of the reflowed text. The summary table
	// sometimes renders with the YTD pair on a continuation line that the
	// token-order pass cannot attribute to its label.
	lines := reflowLines(tokens)
	nonFatal, nfOK = lineScan(lines, "non-fatal shooting", 2)
	homicide, hOK = lineScan(lines, "homicide", 2)
	if nfOK && hOK {
		return dashboard.SourceResult{
			YTD:   nonFatal[0] + homicide[0],
			Prior: dashboard.IntPtr(nonFatal[1] + homicide[1]),
		}, nil
	}

	return dashboard.SourceResult{}, dashboard.NewParseError(
		"baltimore",
		"non-fatal shooting and homicide rows not found",
		excerpt(tokens),
	)
}

// reflowLines reassembles the token stream into pseudo-lines by starting a
// new line at every token that begins with an uppercase letter following a
// numeric token. Crude, but sufficient for a label-then-numbers table.
func reflowLines(tokens []string) []string {
	var lines []string
	var current []string
	prevNumeric := false
	for _, tok := range tokens {
		_, numeric := parseInt(tok)
		if prevNumeric && !numeric && len(current) > 0 {
			lines = append(lines, strings.Join(current, " "))
			current = current[:0]
		}
		current = append(current, tok)
		prevNumeric = numeric
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}
