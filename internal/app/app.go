// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/artifacts"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/browser"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/clock/system"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/config"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/fetch"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/history"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/logging"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/metrics"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/notify"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/orchestrator"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/sources"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/vision"
)

// App holds the shared, long-lived services built from configuration: the
// logger, the fetch and browser clients the adapters share, the vision
// client, artifact storage, and the optional history and notify backends.
// It is initialized once at startup and closed by a Cobra hook.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Clock    dashboard.Clock
	Fetcher  *fetch.Client
	Browser  *browser.Launcher
	Vision   *vision.Client
	Store    artifacts.Store
	History  *history.Log // nil when history is disabled
	Notifier notify.Notifier
	Metrics  metrics.Recorder
}

// New builds every service the configuration enables. It fails fast: a
// misconfigured backend is an error at startup, not at first use.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	launcher, err := browser.NewLauncher(browser.Config{
		UserAgent:   cfg.Browser.UserAgent,
		MaxParallel: cfg.Browser.MaxParallel,
		NavTimeout:  cfg.NavTimeout(),
		DomainQPS:   cfg.Browser.DomainQPS,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing browser: %w", err)
	}

	visionClient, err := vision.New(vision.Config{
		Endpoint:  cfg.Vision.Endpoint,
		APIKey:    cfg.Vision.APIKey,
		Model:     cfg.Vision.Model,
		MaxTokens: cfg.Vision.MaxTokens,
		Timeout:   time.Duration(cfg.Vision.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		launcher.Close()
		return nil, fmt.Errorf("initializing vision client: %w", err)
	}

	artifactStore, err := artifacts.FromConfig(ctx, cfg.Artifacts)
	if err != nil {
		launcher.Close()
		return nil, fmt.Errorf("initializing artifact store: %w", err)
	}

	var runLog *history.Log
	if cfg.History.Enabled {
		runLog, err = history.New(ctx, history.Config{DSN: cfg.History.DSN})
		if err != nil {
			launcher.Close()
			return nil, fmt.Errorf("initializing history log: %w", err)
		}
	}

	notifier, err := notify.FromConfig(ctx, cfg.Notify, logger)
	if err != nil {
		launcher.Close()
		if runLog != nil {
			runLog.Close()
		}
		return nil, fmt.Errorf("initializing notifier: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Clock:    system.Clock{},
		Fetcher:  fetch.New(fetch.Config{UserAgent: cfg.HTTP.UserAgent, Timeout: cfg.HTTPTimeout()}),
		Browser:  launcher,
		Vision:   visionClient,
		Store:    artifactStore,
		History:  runLog,
		Notifier: notifier,
		Metrics:  metrics.NewRecorder(),
	}, nil
}

// SourceDeps bundles the collaborators the adapters need.
func (a *App) SourceDeps() sources.Deps {
	return sources.Deps{
		Fetcher:   a.Fetcher,
		Browser:   sources.LauncherBrowser{Launcher: a.Browser},
		Vision:    a.Vision,
		Clock:     a.Clock,
		Logger:    a.Logger,
		Artifacts: a.Store,
	}
}

// Runner assembles the orchestrator for one ingestion run. The configured
// run.source_timeout_seconds is a ceiling: a source's own budget applies
// unless the operator set a lower one.
func (a *App) Runner() *orchestrator.Runner {
	srcs := sources.All(a.SourceDeps())
	if ceiling := a.Config.SourceTimeout(); ceiling > 0 {
		for i := range srcs {
			if srcs[i].Timeout > ceiling {
				srcs[i].Timeout = ceiling
			}
		}
	}
	r := &orchestrator.Runner{
		Sources:            srcs,
		StorePath:          a.Config.Store.Path,
		Manual:             sources.ManualSources,
		ManualDefaultError: sources.ManualDefaultError,
		Clock:              a.Clock,
		Logger:             a.Logger,
		Metrics:            a.Metrics,
		Notifier:           a.Notifier,
	}
	if a.History != nil {
		r.History = a.History
	}
	return r
}

// Close gracefully shuts down every service in the container.
func (a *App) Close() {
	a.Logger.Info("shutting down application services")
	a.Browser.Close()
	if a.History != nil {
		a.History.Close()
	}
	if err := a.Notifier.Close(); err != nil {
		a.Logger.Warn("error closing notifier", zap.Error(err))
	}
	// Flush buffered log entries; best effort on shutdown.
	_ = a.Logger.Sync()
}
