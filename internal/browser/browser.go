// Package browser drives headless Chrome via chromedp for adapters whose
// publishers render data client-side.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config controls the shared browser allocator.
type Config struct {
	UserAgent   string
	MaxParallel int
	NavTimeout  time.Duration
	DomainQPS   float64
}

// Launcher owns the Chrome exec allocator. Each adapter opens its own
// Session; no two adapters ever share a tab.
type Launcher struct {
	cfg            Config
	allocator      context.Context
	allocCancel    context.CancelFunc
	limiter        chan struct{}
	domainLimiters sync.Map
	logger         *zap.Logger
}

// NewLauncher creates a launcher backed by a headless Chrome allocator.
func NewLauncher(cfg Config, logger *zap.Logger) (*Launcher, error) {
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 45 * time.Second
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Launcher{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		limiter:     limiter,
		logger:      logger,
	}, nil
}

// Close cancels the allocator context.
func (l *Launcher) Close() {
	l.allocCancel()
}

// Session is one adapter's exclusive browser tab.
type Session struct {
	launcher *Launcher
	ctx      context.Context
	cancel   context.CancelFunc
	release  func()
	logger   *zap.Logger
}

// NewSession opens a fresh tab. The caller must Close it; cleanup is
// best-effort and safe to run after the orchestrator has stopped waiting.
func (l *Launcher) NewSession(ctx context.Context) (*Session, error) {
	release := func() {}
	if l.limiter != nil {
		select {
		case l.limiter <- struct{}{}:
			release = func() { <-l.limiter }
		case <-ctx.Done():
			return nil, fmt.Errorf("browser slot wait canceled: %w", ctx.Err())
		}
	}

	tabCtx, tabCancel := chromedp.NewContext(l.allocator)

	if l.cfg.UserAgent != "" {
		setup := chromedp.Tasks{
			network.Enable(),
			emulation.SetUserAgentOverride(l.cfg.UserAgent),
		}
		if err := chromedp.Run(tabCtx, setup); err != nil {
			tabCancel()
			release()
			return nil, fmt.Errorf("browser session setup: %w", err)
		}
	}

	return &Session{
		launcher: l,
		ctx:      tabCtx,
		cancel:   tabCancel,
		release:  release,
		logger:   l.logger,
	}, nil
}

// Close tears down the tab and frees the parallelism slot.
func (s *Session) Close() {
	s.cancel()
	s.release()
}

// Run executes chromedp actions in this session's tab, honoring ctx for
// cancellation/deadline.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := forwardCancel(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("chromedp run: %w", err)
	}
	return nil
}

// Navigate loads a URL after waiting out the per-domain rate budget.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	if err := s.launcher.waitDomainBudget(ctx, rawURL); err != nil {
		return err
	}
	return s.Run(ctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Screenshot captures the full rendered page as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.Run(ctx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("empty screenshot")
	}
	return buf, nil
}

// BodyText extracts the visible text of the document body.
func (s *Session) BodyText(ctx context.Context) (string, error) {
	var text string
	if err := s.Run(ctx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return text, nil
}

func (l *Launcher) waitDomainBudget(ctx context.Context, rawURL string) error {
	if l.cfg.DomainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse navigation url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := l.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(l.cfg.DomainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait limiter: %w", err)
	}
	return nil
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
