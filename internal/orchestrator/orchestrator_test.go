package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/store"
)

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func newRunner(t *testing.T, sources []dashboard.Source) *Runner {
	t.Helper()
	return &Runner{
		Sources:            sources,
		StorePath:          filepath.Join(t.TempDir(), "shootings.json"),
		Manual:             []string{"stlouis"},
		ManualDefaultError: "No manual data yet",
		Clock:              realClock{},
		Logger:             zap.NewNop(),
	}
}

func okSource(name string, ytd int) dashboard.Source {
	return dashboard.Source{
		Name:    name,
		Timeout: time.Second,
		Run: func(context.Context) (dashboard.SourceResult, error) {
			return dashboard.SourceResult{YTD: ytd}, nil
		},
	}
}

func TestRunRecordsEveryOutcomeShape(t *testing.T) {
	t.Parallel()

	sources := []dashboard.Source{
		okSource("alpha", 120),
		{
			Name:    "bravo",
			Timeout: time.Second,
			Run: func(context.Context) (dashboard.SourceResult, error) {
				return dashboard.SourceResult{}, errors.New("layout drifted")
			},
		},
		{
			Name:    "charlie",
			Timeout: time.Second,
			Run: func(context.Context) (dashboard.SourceResult, error) {
				panic("selector nil deref")
			},
		},
	}
	r := newRunner(t, sources)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.NotEmpty(t, summary.RunID)

	alpha := summary.Records["alpha"]
	require.True(t, alpha.OK)
	require.NotNil(t, alpha.YTD)
	assert.Equal(t, 120, *alpha.YTD)

	bravo := summary.Records["bravo"]
	assert.False(t, bravo.OK)
	assert.Contains(t, bravo.Error, "layout drifted")

	charlie := summary.Records["charlie"]
	assert.False(t, charlie.OK)
	assert.Contains(t, charlie.Error, "panic")
}

func TestRunAbandonsTimedOutSource(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	sources := []dashboard.Source{
		okSource("fast", 42),
		{
			Name:    "stuck",
			Timeout: 50 * time.Millisecond,
			Run: func(context.Context) (dashboard.SourceResult, error) {
				<-release
				return dashboard.SourceResult{YTD: 999}, nil
			},
		},
	}
	r := newRunner(t, sources)

	started := time.Now()
	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	close(release)

	// The stuck source cost its own budget, not the fast source's result.
	assert.Less(t, time.Since(started), 5*time.Second)
	assert.True(t, summary.Records["fast"].OK)

	stuck := summary.Records["stuck"]
	assert.False(t, stuck.OK)
	assert.Equal(t, "stuck timed out after 1s", stuck.Error)
}

func TestRunTimeoutMessageFormat(t *testing.T) {
	t.Parallel()

	sources := []dashboard.Source{{
		Name:    "glacial",
		Timeout: 1 * time.Second,
		Run: func(context.Context) (dashboard.SourceResult, error) {
			time.Sleep(10 * time.Second)
			return dashboard.SourceResult{}, nil
		},
	}}
	r := newRunner(t, sources)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "glacial timed out after 1s", summary.Records["glacial"].Error)
}

func TestRunSeedsManualSourceOnce(t *testing.T) {
	t.Parallel()

	r := newRunner(t, []dashboard.Source{okSource("alpha", 1)})

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	st, err := store.Load(r.StorePath)
	require.NoError(t, err)
	rec, ok := st.Get("stlouis")
	require.True(t, ok)
	assert.False(t, rec.OK)
	assert.Equal(t, "No manual data yet", rec.Error)

	// Hand-edit the manual entry; the next run must not touch it.
	curated := dashboard.SuccessRecord(dashboard.SourceResult{YTD: 77}, time.Now())
	require.NoError(t, st.Merge(map[string]dashboard.SourceRecord{"stlouis": curated}))
	require.NoError(t, st.Save())

	_, err = r.Run(context.Background())
	require.NoError(t, err)

	st, err = store.Load(r.StorePath)
	require.NoError(t, err)
	rec, ok = st.Get("stlouis")
	require.True(t, ok)
	assert.True(t, rec.OK)
	require.NotNil(t, rec.YTD)
	assert.Equal(t, 77, *rec.YTD)
}

func TestRunPreservesUncoveredKeys(t *testing.T) {
	t.Parallel()

	r := newRunner(t, []dashboard.Source{okSource("alpha", 1)})

	// Seed the store with a retired source carrying a field this build
	// does not model.
	seed := []byte(`{"retiredcity": {"ok": true, "ytd": 55, "note": "kept by hand"}}` + "\n")
	require.NoError(t, os.WriteFile(r.StorePath, seed, 0o644))

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(r.StorePath)
	require.NoError(t, err)

	var all map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &all))
	assert.Contains(t, all, "alpha")
	assert.Contains(t, all, "retiredcity")

	var retired map[string]any
	require.NoError(t, json.Unmarshal(all["retiredcity"], &retired))
	assert.Equal(t, "kept by hand", retired["note"])
}

func TestRunIsIdempotentForFailures(t *testing.T) {
	t.Parallel()

	// A source that succeeds once then fails must keep a record either
	// way: failures overwrite, they do not erase.
	var calls int
	var mu sync.Mutex
	flaky := dashboard.Source{
		Name:    "flaky",
		Timeout: time.Second,
		Run: func(context.Context) (dashboard.SourceResult, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return dashboard.SourceResult{YTD: 10}, nil
			}
			return dashboard.SourceResult{}, errors.New("site down")
		},
	}
	r := newRunner(t, []dashboard.Source{flaky})

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	require.NoError(t, err)

	st, err := store.Load(r.StorePath)
	require.NoError(t, err)
	rec, ok := st.Get("flaky")
	require.True(t, ok)
	assert.False(t, rec.OK)
	assert.Contains(t, rec.Error, "site down")
	assert.Nil(t, rec.YTD)
}

type captureNotifier struct {
	mu        sync.Mutex
	summaries []Summary
}

func (n *captureNotifier) Publish(_ context.Context, s Summary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, s)
	return nil
}

type captureRecorder struct {
	mu      sync.Mutex
	sources map[string]bool
	runs    int
}

func (c *captureRecorder) ObserveSource(name string, ok bool, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sources == nil {
		c.sources = make(map[string]bool)
	}
	c.sources[name] = ok
}

func (c *captureRecorder) ObserveRun(_, _ int, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
}

func TestRunNotifiesAndObserves(t *testing.T) {
	t.Parallel()

	r := newRunner(t, []dashboard.Source{okSource("alpha", 1)})
	notifier := &captureNotifier{}
	recorder := &captureRecorder{}
	r.Notifier = notifier
	r.Metrics = recorder

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.summaries, 1)
	assert.Equal(t, summary.RunID, notifier.summaries[0].RunID)
	assert.Equal(t, map[string]bool{"alpha": true}, recorder.sources)
	assert.Equal(t, 1, recorder.runs)
}
