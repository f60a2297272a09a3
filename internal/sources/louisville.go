package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// Louisville exposes its open-data shooting aggregate as a direct CSV
// endpoint, no browser required. Rows carry year and count columns; the
// current and prior calendar years map onto YTD and Prior.
const louisvilleCSVURL = "https://data.louisvilleky.gov/api/views/shootings-ytd/rows.csv"

// Louisville builds the louisville source adapter.
func Louisville(deps Deps) dashboard.Source {
	return dashboard.Source{
		Name:    "louisville",
		Timeout: 30 * time.Second,
		Run: func(ctx context.Context) (dashboard.SourceResult, error) {
			return runLouisville(ctx, deps)
		},
	}
}

func runLouisville(ctx context.Context, deps Deps) (dashboard.SourceResult, error) {
	resp, err := deps.Fetcher.FetchOK(ctx, louisvilleCSVURL, 20*time.Second)
	if err != nil {
		return dashboard.SourceResult{}, fmt.Errorf("louisville: %w", err)
	}
	saveArtifact(ctx, deps, "louisville/shootings.csv", "text/csv", resp.Body)

	year := deps.Clock.Now().Year()
	return parseLouisvilleCSV(resp.Body, year)
}

// parseLouisvilleCSV sums shooting counts per year and reports the current
// year as YTD with the prior year alongside when present. The export
// sometimes opens with # comment lines carrying the cutoff date; that is
// the only place an as-of may come from.
func parseLouisvilleCSV(data []byte, year int) (dashboard.SourceResult, error) {
	comments, rows := splitLeadingComments(data)
	reader := csv.NewReader(bytes.NewReader(rows))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return dashboard.SourceResult{}, dashboard.NewParseError("louisville", "empty or unreadable CSV", string(data))
	}

	yearCol, countCol := -1, -1
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case yearCol < 0 && strings.Contains(name, "year"):
			yearCol = i
		case countCol < 0 && (strings.Contains(name, "count") || strings.Contains(name, "victims") || strings.Contains(name, "total")):
			countCol = i
		}
	}
	if yearCol < 0 || countCol < 0 {
		return dashboard.SourceResult{}, dashboard.NewParseError("louisville", "CSV missing year or count column", strings.Join(header, ","))
	}

	totals := make(map[int]int)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dashboard.SourceResult{}, dashboard.NewParseError("louisville", "malformed CSV row", err.Error())
		}
		if yearCol >= len(row) || countCol >= len(row) {
			continue
		}
		y, ok := parseInt(row[yearCol])
		if !ok {
			continue
		}
		n, ok := parseInt(row[countCol])
		if !ok {
			continue
		}
		totals[y] += n
	}

	cur, ok := totals[year]
	if !ok {
		return dashboard.SourceResult{}, dashboard.NewParseError("louisville", fmt.Sprintf("no rows for year %d", year), strings.Join(header, ","))
	}

	result := dashboard.SourceResult{YTD: cur}
	if prior, ok := totals[year-1]; ok {
		result.Prior = dashboard.IntPtr(prior)
	}
	if date, ok := findStatedDate(comments); ok {
		result.AsOf = dashboard.StringPtr(date)
	}
	return result, nil
}

// splitLeadingComments separates the # comment lines some open-data
// exports prepend from the CSV content proper.
func splitLeadingComments(data []byte) (comments string, rows []byte) {
	rest := data
	var lines []string
	for len(rest) > 0 {
		line, tail := rest, []byte(nil)
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, tail = rest[:i], rest[i+1:]
		}
		if !bytes.HasPrefix(bytes.TrimSpace(line), []byte("#")) {
			break
		}
		lines = append(lines, string(line))
		rest = tail
	}
	return strings.Join(lines, "\n"), rest
}
