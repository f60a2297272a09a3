// Package orchestrator runs every source adapter concurrently, enforces
// per-source time budgets, and folds the results into the persisted store.
//
// Fault isolation is the governing rule: one adapter's panic, error, or
// hang must never cost another adapter its result. A source that exceeds
// its budget is abandoned, not cancelled; its goroutine may linger until
// the process-level deadline, but its late result is discarded.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/store"
)

// Recorder receives per-source outcome observations. metrics.Recorder
// satisfies it.
type Recorder interface {
	ObserveSource(name string, ok bool, elapsed time.Duration)
	ObserveRun(succeeded, failed int, elapsed time.Duration)
}

// History appends this run's per-source rows to the long-term log. The
// dataset file only keeps the latest value per source; history keeps them
// all.
type History interface {
	AppendRun(ctx context.Context, runID string, at time.Time, records map[string]dashboard.SourceRecord) error
}

// Notifier publishes a completed-run event for downstream consumers.
type Notifier interface {
	Publish(ctx context.Context, summary Summary) error
}

// Summary describes one completed ingestion run.
type Summary struct {
	RunID     string
	StartedAt time.Time
	Elapsed   time.Duration
	Succeeded int
	Failed    int
	Records   map[string]dashboard.SourceRecord
}

// Runner coordinates one ingestion run end to end.
type Runner struct {
	Sources   []dashboard.Source
	StorePath string
	// Manual keys are seeded with a default record when absent and never
	// overwritten by a run.
	Manual             []string
	ManualDefaultError string

	Clock    dashboard.Clock
	Logger   *zap.Logger
	Metrics  Recorder // nil disables metrics
	History  History  // nil disables history
	Notifier Notifier // nil disables notifications
}

// Run collects every source, merges the outcome into the store on disk,
// and saves it. Per-source failures are recorded, not returned; the error
// covers only run-level problems such as an unreadable store file.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	started := r.Clock.Now()
	logger := r.Logger.With(zap.String("run_id", runID))

	logger.Info("ingestion run starting", zap.Int("sources", len(r.Sources)))

	records := r.collect(ctx, logger)

	st, err := store.Load(r.StorePath)
	if err != nil {
		return Summary{}, fmt.Errorf("loading store: %w", err)
	}
	for _, key := range r.Manual {
		if err := st.SetDefault(key, dashboard.FailureRecord(r.ManualDefaultError, started)); err != nil {
			return Summary{}, fmt.Errorf("seeding manual source %s: %w", key, err)
		}
	}
	if err := st.Merge(records); err != nil {
		return Summary{}, fmt.Errorf("merging results: %w", err)
	}
	if err := st.Save(); err != nil {
		return Summary{}, fmt.Errorf("saving store: %w", err)
	}

	summary := Summary{
		RunID:     runID,
		StartedAt: started,
		Elapsed:   r.Clock.Now().Sub(started),
		Records:   records,
	}
	for _, rec := range records {
		if rec.OK {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	if r.Metrics != nil {
		r.Metrics.ObserveRun(summary.Succeeded, summary.Failed, summary.Elapsed)
	}
	if r.History != nil {
		if err := r.History.AppendRun(ctx, runID, started, records); err != nil {
			logger.Warn("history append failed", zap.Error(err))
		}
	}
	if r.Notifier != nil {
		if err := r.Notifier.Publish(ctx, summary); err != nil {
			logger.Warn("run notification failed", zap.Error(err))
		}
	}

	logger.Info("ingestion run finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

type outcome struct {
	name   string
	record dashboard.SourceRecord
}

// collect fans the sources out and gathers one record per source. Every
// source gets a record; no outcome shape is dropped.
func (r *Runner) collect(ctx context.Context, logger *zap.Logger) map[string]dashboard.SourceRecord {
	results := make(chan outcome, len(r.Sources))
	for _, src := range r.Sources {
		go r.runSource(ctx, logger, src, results)
	}

	records := make(map[string]dashboard.SourceRecord, len(r.Sources))
	for range r.Sources {
		out := <-results
		records[out.name] = out.record
	}
	return records
}

// runSource runs one adapter under its own budget and always delivers
// exactly one outcome. The adapter goroutine is abandoned on timeout; the
// buffered inner channel lets its late result be dropped without leaking
// the goroutine on send.
func (r *Runner) runSource(ctx context.Context, logger *zap.Logger, src dashboard.Source, results chan<- outcome) {
	type attempt struct {
		res dashboard.SourceResult
		err error
	}
	inner := make(chan attempt, 1)
	started := r.Clock.Now()

	go func() {
		defer func() {
			if p := recover(); p != nil {
				inner <- attempt{err: fmt.Errorf("panic: %v\n%s", p, debug.Stack())}
			}
		}()
		res, err := src.Run(ctx)
		inner <- attempt{res: res, err: err}
	}()

	timer := time.NewTimer(src.Timeout)
	defer timer.Stop()

	var rec dashboard.SourceRecord
	select {
	case a := <-inner:
		elapsed := r.Clock.Now().Sub(started)
		if a.err != nil {
			logger.Warn("source failed",
				zap.String("source", src.Name),
				zap.Duration("elapsed", elapsed),
				zap.Error(a.err),
			)
			rec = dashboard.FailureRecord(a.err.Error(), r.Clock.Now())
		} else {
			logger.Info("source collected",
				zap.String("source", src.Name),
				zap.Int("ytd", a.res.YTD),
				zap.Duration("elapsed", elapsed),
			)
			rec = dashboard.SuccessRecord(a.res, r.Clock.Now())
		}
		r.observe(src.Name, a.err == nil, elapsed)
	case <-timer.C:
		err := &dashboard.TimeoutError{Op: src.Name, Budget: src.Timeout}
		logger.Warn("source abandoned", zap.String("source", src.Name), zap.Error(err))
		rec = dashboard.FailureRecord(err.Error(), r.Clock.Now())
		r.observe(src.Name, false, src.Timeout)
	case <-ctx.Done():
		err := ctx.Err()
		logger.Warn("source interrupted", zap.String("source", src.Name), zap.Error(err))
		rec = dashboard.FailureRecord(err.Error(), r.Clock.Now())
		r.observe(src.Name, false, r.Clock.Now().Sub(started))
	}

	results <- outcome{name: src.Name, record: rec}
}

func (r *Runner) observe(name string, ok bool, elapsed time.Duration) {
	if r.Metrics != nil {
		r.Metrics.ObserveSource(name, ok, elapsed)
	}
}
