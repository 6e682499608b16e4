package fetcher

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"net"
	"net/http"
	"syscall"
	"time"
)

// httpStatusError carries a non-2xx status through the retry classifier.
type httpStatusError struct {
	Code int
	Err  error
}

func (e *httpStatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *httpStatusError) Unwrap() error {
	return e.Err
}

// retryPolicy implements jittered exponential backoff for transient
// failures: timeouts, connection resets, 429, and 5xx responses.
type retryPolicy struct {
	baseDelay time.Duration
	maxDelay  time.Duration
}

func newRetryPolicy() *retryPolicy {
	return &retryPolicy{
		baseDelay: 500 * time.Millisecond,
		maxDelay:  15 * time.Second,
	}
}

// Retryable reports whether the error is worth another attempt. Request
// timeouts are; cancellation and client-side errors (4xx, bad URLs) never
// are.
func (p *retryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == 429 || statusErr.Code >= 500
	}
	// Client timeouts wrap context.DeadlineExceeded, so the timeout check
	// must run before the context sentinels.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Backoff returns the wait before attempt n (1-indexed), half fixed and
// half random jitter.
func (p *retryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	half := time.Duration(delay / 2)
	return half + randomJitter(half)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
