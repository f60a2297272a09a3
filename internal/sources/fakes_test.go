package sources

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/fetch"
)

// fixedClock pins adapter date arithmetic to a known instant.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// fakeFetcher serves canned responses per URL and records requests.
type fakeFetcher struct {
	responses map[string]fetch.Response
	errs      map[string]error
	requested []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string, _ time.Duration) (fetch.Response, error) {
	f.requested = append(f.requested, url)
	if err, ok := f.errs[url]; ok {
		return fetch.Response{}, err
	}
	if resp, ok := f.responses[url]; ok {
		return resp, nil
	}
	return fetch.Response{}, &dashboard.HTTPStatusError{URL: url, Status: 404}
}

func (f *fakeFetcher) FetchOK(ctx context.Context, url string, timeout time.Duration) (fetch.Response, error) {
	resp, err := f.Fetch(ctx, url, timeout)
	if err != nil {
		return fetch.Response{}, err
	}
	if resp.Status != 200 {
		return fetch.Response{}, &dashboard.HTTPStatusError{URL: url, Status: resp.Status}
	}
	return resp, nil
}

// fakeSession scripts a browser tab: canned body text, screenshot bytes,
// and download payloads.
type fakeSession struct {
	navigated  []string
	navErr     error
	body       string
	bodyErr    error
	screenshot []byte
	shotErr    error
	download   []byte
	downName   string
	downErr    error
	runErr     error
	runOKCalls int // Run calls that succeed before runErr applies
	runCalls   int
	ranActions int
	closed     bool
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return s.navErr
}

// Run records the call without executing: real chromedp actions need a
// live browser context, and step-failure handling has its own tests.
func (s *fakeSession) Run(_ context.Context, actions ...chromedp.Action) error {
	s.runCalls++
	s.ranActions += len(actions)
	if s.runCalls <= s.runOKCalls {
		return nil
	}
	return s.runErr
}

func (s *fakeSession) Screenshot(context.Context) ([]byte, error) {
	return s.screenshot, s.shotErr
}

func (s *fakeSession) BodyText(context.Context) (string, error) {
	return s.body, s.bodyErr
}

func (s *fakeSession) CaptureDownload(ctx context.Context, trigger func(ctx context.Context) error, _ time.Duration) ([]byte, string, error) {
	if err := trigger(ctx); err != nil {
		return nil, "", err
	}
	return s.download, s.downName, s.downErr
}

func (s *fakeSession) Close() { s.closed = true }

type fakeBrowser struct {
	session *fakeSession
	err     error
}

func (b *fakeBrowser) NewSession(context.Context) (BrowserSession, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.session, nil
}

// fakeOracle records the prompt it was asked and returns a scripted reply.
type fakeOracle struct {
	reply   string
	err     error
	prompts []string
	images  [][]byte
}

func (o *fakeOracle) Ask(_ context.Context, image []byte, _ string, prompt string) (string, error) {
	o.prompts = append(o.prompts, prompt)
	o.images = append(o.images, image)
	return o.reply, o.err
}

func testDeps() Deps {
	return Deps{
		Clock:  fixedClock{now: time.Date(2025, 7, 18, 12, 0, 0, 0, time.UTC)},
		Logger: zap.NewNop(),
	}
}
