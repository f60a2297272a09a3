package sources

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

func TestParsePhiladelphia(t *testing.T) {
	t.Parallel()

	t.Run("four column row", func(t *testing.T) {
		t.Parallel()
		tokens := strings.Fields("Citywide Crime Wk Mo YTD Prior Shooting Victims 5 30 120 145 Homicide 2 8 40 52")
		got, err := parsePhiladelphia(tokens)
		require.NoError(t, err)
		assert.Equal(t, 120, got.YTD)
		require.NotNil(t, got.Prior)
		assert.Equal(t, 145, *got.Prior)
	})

	t.Run("two column fallback", func(t *testing.T) {
		t.Parallel()
		tokens := strings.Fields("Shooting Victims 120 145 Homicide 40 52")
		got, err := parsePhiladelphia(tokens)
		require.NoError(t, err)
		assert.Equal(t, 120, got.YTD)
		require.NotNil(t, got.Prior)
		assert.Equal(t, 145, *got.Prior)
	})

	t.Run("missing row", func(t *testing.T) {
		t.Parallel()
		tokens := strings.Fields("Homicide 2 8 40 52")
		_, err := parsePhiladelphia(tokens)
		var perr *dashboard.ParseError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "philadelphia", perr.Source)
		assert.Contains(t, perr.Excerpt, "Homicide")
	})
}

func TestRunPhiladelphiaBuildsThursdayURL(t *testing.T) {
	t.Parallel()

	// Clock is Friday 2025-07-18; the report is named for Thursday the 17th.
	deps := testDeps()
	fetcher := &fakeFetcher{}
	deps.Fetcher = fetcher

	_, err := runPhiladelphia(context.Background(), deps)
	require.Error(t, err)

	require.Len(t, fetcher.requested, 1)
	assert.Equal(t, "https://www.phillypolice.com/assets/crime-maps-stats/CityWide-20250717.pdf", fetcher.requested[0])

	var statusErr *dashboard.HTTPStatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestParseBaltimoreSumsRows(t *testing.T) {
	t.Parallel()

	tokens := strings.Fields("Weekly Summary Non-Fatal Shooting 120 145 Homicide 40 52 Robbery 300 280")
	got, err := parseBaltimore(tokens)
	require.NoError(t, err)
	assert.Equal(t, 160, got.YTD)
	require.NotNil(t, got.Prior)
	assert.Equal(t, 197, *got.Prior)
}

func TestParseBaltimoreMissingRows(t *testing.T) {
	t.Parallel()

	// One of the two rows alone is not enough; the metric is the sum.
	tokens := strings.Fields("Weekly Summary Non-Fatal Shooting 120 145 Robbery 300 280")
	_, err := parseBaltimore(tokens)
	var perr *dashboard.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "baltimore", perr.Source)
}

func TestReflowLines(t *testing.T) {
	t.Parallel()

	tokens := strings.Fields("Non-Fatal Shooting 120 145 Homicide 40 52")
	lines := reflowLines(tokens)
	assert.Equal(t, []string{
		"Non-Fatal Shooting 120 145",
		"Homicide 40 52",
	}, lines)
}

func TestParseKansasCity(t *testing.T) {
	t.Parallel()

	t.Run("label row", func(t *testing.T) {
		t.Parallel()
		tokens := strings.Fields("Citywide Shooting Victims YTD 204 310")
		got, err := parseKansasCity(tokens, 2025)
		require.NoError(t, err)
		assert.Equal(t, 204, got.YTD)
		require.NotNil(t, got.Prior)
		assert.Equal(t, 310, *got.Prior)
	})

	t.Run("year fallback", func(t *testing.T) {
		t.Parallel()
		tokens := strings.Fields("Shootings by Year 2024 310 2025 204")
		got, err := parseKansasCity(tokens, 2025)
		require.NoError(t, err)
		assert.Equal(t, 204, got.YTD)
		require.NotNil(t, got.Prior)
		assert.Equal(t, 310, *got.Prior)
	})

	t.Run("year fallback without prior", func(t *testing.T) {
		t.Parallel()
		tokens := strings.Fields("Shootings 2025 204")
		got, err := parseKansasCity(tokens, 2025)
		require.NoError(t, err)
		assert.Equal(t, 204, got.YTD)
		assert.Nil(t, got.Prior)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		_, err := parseKansasCity(strings.Fields("Homicide 40"), 2025)
		var perr *dashboard.ParseError
		assert.ErrorAs(t, err, &perr)
	})
}

func TestRunKansasCityTriesPreviousWeek(t *testing.T) {
	t.Parallel()

	deps := testDeps()
	fetcher := &fakeFetcher{}
	deps.Fetcher = fetcher

	_, err := runKansasCity(context.Background(), deps)

	// Both Thursday URLs 404, so the adapter reports that no report exists
	// rather than a status error.
	var perr *dashboard.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Detail, "no weekly report")

	require.Len(t, fetcher.requested, 2)
	assert.Equal(t, "https://www.kcpd.org/media/weekly-reports/crime-summary-2025-07-17.pdf", fetcher.requested[0])
	assert.Equal(t, "https://www.kcpd.org/media/weekly-reports/crime-summary-2025-07-10.pdf", fetcher.requested[1])
}
