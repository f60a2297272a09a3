// Package fetch implements the document fetcher using gocolly.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jeffmasher/Shooting-Dashboard-sub000/internal/dashboard"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Response is the result of a single document fetch.
type Response struct {
	Status   int
	Body     []byte
	FinalURL string
}

// Client performs single HTTP GETs with redirect following and a timeout.
// It never retries; the caller decides whether absence of data is fatal.
type Client struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Client.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Without this colly turns any status >= 203 into a Visit error and the
	// response never reaches OnResponse; callers need the real status.
	c.ParseHTTPErrorResponse = true
	c.WithTransport(newHTTPTransport())
	return &Client{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes one HTTP GET, following redirects up to the underlying
// document. Non-2xx responses are returned to the caller as a Response, not
// an error; use FetchOK when only 200 is acceptable.
func (c *Client) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (Response, error) {
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}

	var (
		result   Response
		fetchErr error
	)

	collector := c.baseCollector.Clone()
	if c.cfg.UserAgent != "" {
		collector.UserAgent = c.cfg.UserAgent
	}
	collector.SetRequestTimeout(timeout)

	collector.OnResponse(func(r *colly.Response) {
		result = Response{
			Status:   r.StatusCode,
			Body:     append([]byte(nil), r.Body...),
			FinalURL: r.Request.URL.String(),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		// With ParseHTTPErrorResponse set this only fires for transport
		// failures; non-2xx responses arrive through OnResponse.
		fetchErr = err
	})

	if err := c.runCollector(ctx, collector, rawURL, timeout); err != nil {
		return Response{}, err
	}
	if fetchErr != nil {
		return Response{}, classify(rawURL, timeout, fetchErr)
	}
	if result.Status == 0 {
		return Response{}, &dashboard.NetworkError{URL: rawURL, Err: errors.New("no response received")}
	}
	return result, nil
}

// FetchOK is Fetch plus a 200-status requirement.
func (c *Client) FetchOK(ctx context.Context, rawURL string, timeout time.Duration) (Response, error) {
	resp, err := c.Fetch(ctx, rawURL, timeout)
	if err != nil {
		return Response{}, err
	}
	if resp.Status != http.StatusOK {
		return Response{}, &dashboard.HTTPStatusError{URL: rawURL, Status: resp.Status}
	}
	return resp, nil
}

func (c *Client) runCollector(ctx context.Context, collector *colly.Collector, rawURL string, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return classify(rawURL, timeout, err)
		}
		return nil
	}
}

// classify maps transport-level failures onto the domain error taxonomy.
func classify(rawURL string, timeout time.Duration, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &dashboard.TimeoutError{Op: fmt.Sprintf("fetch %s", rawURL), Budget: timeout}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &dashboard.TimeoutError{Op: fmt.Sprintf("fetch %s", rawURL), Budget: timeout}
	}
	return &dashboard.NetworkError{URL: rawURL, Err: err}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
