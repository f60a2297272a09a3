// Package sources implements the per-publisher extraction adapters.
//
// Every adapter is an isolated function with the same shape: it closes over
// its publisher's fixed URL and selectors, composes the fetch/pdftext/
// browser/vision leaves, and returns one normalized SourceResult or a
// descriptive error. Adapters never share mutable state; each opens its own
// browser session when it needs one.
package sources

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/browser"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/fetch"
)

// Fetcher performs single HTTP GETs. *fetch.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, timeout time.Duration) (fetch.Response, error)
	FetchOK(ctx context.Context, url string, timeout time.Duration) (fetch.Response, error)
}

// BrowserSession is one adapter's exclusive tab. *browser.Session satisfies it.
type BrowserSession interface {
	Navigate(ctx context.Context, url string) error
	Run(ctx context.Context, actions ...chromedp.Action) error
	Screenshot(ctx context.Context) ([]byte, error)
	BodyText(ctx context.Context) (string, error)
	CaptureDownload(ctx context.Context, trigger func(ctx context.Context) error, wait time.Duration) ([]byte, string, error)
	Close()
}

// Browser opens sessions on demand.
type Browser interface {
	NewSession(ctx context.Context) (BrowserSession, error)
}

// Oracle is the image-to-text extraction service. *vision.Client satisfies it.
type Oracle interface {
	Ask(ctx context.Context, image []byte, mediaType, prompt string) (string, error)
}

// ArtifactStore archives raw captured documents and screenshots for
// debugging layout drift. Saving is always best-effort.
type ArtifactStore interface {
	Put(ctx context.Context, path, contentType string, data []byte) (string, error)
}

// Deps bundles the leaf collaborators injected into every adapter.
type Deps struct {
	Fetcher   Fetcher
	Browser   Browser
	Vision    Oracle
	Clock     dashboard.Clock
	Logger    *zap.Logger
	Artifacts ArtifactStore // nil disables artifact capture
}

// LauncherBrowser adapts *browser.Launcher to the Browser interface.
type LauncherBrowser struct {
	Launcher *browser.Launcher
}

// NewSession opens a tab on the underlying launcher.
func (b LauncherBrowser) NewSession(ctx context.Context) (BrowserSession, error) {
	return b.Launcher.NewSession(ctx)
}

// saveArtifact archives data under path when an artifact store is wired.
func saveArtifact(ctx context.Context, deps Deps, path, contentType string, data []byte) {
	if deps.Artifacts == nil || len(data) == 0 {
		return
	}
	if _, err := deps.Artifacts.Put(ctx, path, contentType, data); err != nil {
		deps.Logger.Warn("artifact save failed", zap.String("path", path), zap.Error(err))
	}
}
