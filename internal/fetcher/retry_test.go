package fetcher

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestRetryable(t *testing.T) {
	t.Parallel()
	p := newRetryPolicy()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		// A bare DeadlineExceeded reaching the classifier is a per-request
		// timeout; caller cancellation never gets this far.
		{"deadline", context.DeadlineExceeded, true},
		{"too many requests", &httpStatusError{Code: 429}, true},
		{"server error", &httpStatusError{Code: 503}, true},
		{"not found", &httpStatusError{Code: 404}, false},
		{"forbidden", &httpStatusError{Code: 403}, false},
		{"timeout", timeoutErr{}, true},
		{"wrapped timeout", &net.OpError{Op: "read", Err: timeoutErr{}}, true},
		{"connection reset", syscall.ECONNRESET, true},
		{"connection refused", syscall.ECONNREFUSED, true},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Retryable(tc.err))
		})
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	t.Parallel()
	p := newRetryPolicy()

	prev := time.Duration(0)
	for attempt := 1; attempt <= 4; attempt++ {
		d := p.Backoff(attempt)
		expected := p.baseDelay << (attempt - 1)
		require.GreaterOrEqual(t, d, expected/2, "attempt %d below the fixed half", attempt)
		require.LessOrEqual(t, d, expected, "attempt %d above the full delay", attempt)
		require.Greater(t, d, prev/2, "attempt %d did not grow", attempt)
		prev = d
	}

	capped := p.Backoff(20)
	require.LessOrEqual(t, capped, p.maxDelay)
	require.GreaterOrEqual(t, capped, p.maxDelay/2)
}
