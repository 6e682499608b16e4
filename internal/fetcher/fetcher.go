// Package fetcher implements rate-limited, retrying page retrieval on top
// of the Colly collector.
package fetcher

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/minhtran-vn/topcv-crawler/internal/crawler"
	"github.com/minhtran-vn/topcv-crawler/internal/telemetry"
)

// Config controls fetch behavior.
type Config struct {
	// MinDelay is the enforced minimum spacing between any two requests,
	// shared across all callers of this client. MaxDelay adds random
	// jitter on top: the effective delay is MinDelay plus up to
	// (MaxDelay - MinDelay).
	MinDelay time.Duration
	MaxDelay time.Duration
	// MaxRetries bounds retries of transient failures; the total attempt
	// count is MaxRetries + 1.
	MaxRetries int
	Timeout    time.Duration
	UserAgents []string
}

// Client fetches single pages. The rate limiter is shared by every Fetch
// call on the same Client, so concurrent callers still observe one global
// inter-request spacing.
type Client struct {
	cfg     Config
	base    *colly.Collector
	limiter *rate.Limiter
	retry   *retryPolicy
	logger  *zap.Logger
}

var _ crawler.Fetcher = (*Client)(nil)

// New builds a Client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = time.Second
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	// colly v2.1.0's Async option ignores its argument and always enables
	// async mode; synchronous is the default, so pass no option.
	base := colly.NewCollector()
	base.IgnoreRobotsTxt = true
	// Revisits are the retry path's job, not the collector's.
	base.AllowURLRevisit = true
	base.SetRequestTimeout(cfg.Timeout)
	base.WithTransport(&http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	})

	return &Client{
		cfg:     cfg,
		base:    base,
		limiter: rate.NewLimiter(rate.Every(cfg.MinDelay), 1),
		retry:   newRetryPolicy(),
		logger:  logger,
	}, nil
}

// Fetch retrieves one page and returns its raw markup. Transient failures
// are retried with backoff up to the configured bound; non-retryable
// failures surface immediately. The returned error is always a
// *crawler.FetchError (or a context error on cancellation).
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		telemetry.ObserveFetch("failed")
		return nil, &crawler.FetchError{URL: rawURL, Attempts: 1, Err: err}
	}

	attempts := c.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.pause(ctx); err != nil {
			return nil, err
		}

		body, err := c.fetchOnce(ctx, rawURL)
		if err == nil {
			telemetry.ObserveFetch("success")
			return body, nil
		}
		lastErr = err

		// Client timeouts also match context.DeadlineExceeded, so only the
		// caller's context decides whether this is a cancellation; a timed
		// out request with a live context goes through the retry path.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !c.retry.Retryable(err) {
			telemetry.ObserveFetch("failed")
			return nil, &crawler.FetchError{URL: rawURL, Attempts: attempt, Err: err}
		}

		telemetry.ObserveFetch("retryable")
		if attempt < attempts {
			telemetry.ObserveRetry()
			backoff := c.retry.Backoff(attempt)
			c.logger.Warn("transient fetch failure, backing off",
				zap.String("url", rawURL),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			if err := sleepCtx(ctx, backoff); err != nil {
				return nil, err
			}
		}
	}

	telemetry.ObserveFetch("failed")
	return nil, &crawler.FetchError{URL: rawURL, Attempts: attempts, Err: lastErr}
}

// pause enforces the shared inter-request spacing plus random jitter.
func (c *Client) pause(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if spread := c.cfg.MaxDelay - c.cfg.MinDelay; spread > 0 {
		return sleepCtx(ctx, time.Duration(rand.Int63n(int64(spread))))
	}
	return nil
}

func (c *Client) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	collector := c.base.Clone()
	collector.UserAgent = pickUserAgent(c.cfg.UserAgents)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", "vi-VN,vi;q=0.9,en-US;q=0.8,en;q=0.7")
		r.Headers.Set("Referer", "https://www.topcv.vn/")
	})
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			fetchErr = &httpStatusError{Code: r.StatusCode, Err: err}
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-done:
		// OnError carries the status code when one exists; prefer it so
		// the retry classifier can see 429s and 5xxs.
		if fetchErr != nil {
			return nil, fetchErr
		}
		if err != nil {
			return nil, fmt.Errorf("visit %s: %w", rawURL, err)
		}
	}
	return body, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
