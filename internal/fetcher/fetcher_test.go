package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minhtran-vn/topcv-crawler/internal/crawler"
)

func newTestClient(t *testing.T, retries int) *Client {
	t.Helper()
	c, err := New(Config{
		MinDelay:   time.Millisecond,
		MaxDelay:   time.Millisecond,
		MaxRetries: retries,
		Timeout:    5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	// Short waits keep retry tests fast.
	c.retry.baseDelay = time.Millisecond
	c.retry.maxDelay = 5 * time.Millisecond
	return c
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.NotEmpty(t, r.UserAgent())
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	body, err := newTestClient(t, 2).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, string(body), "ok")
	require.EqualValues(t, 1, calls.Load())
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	body, err := newTestClient(t, 4).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "recovered", string(body))
	require.EqualValues(t, 3, calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, 4).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.EqualValues(t, 1, calls.Load())

	var fetchErr *crawler.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 1, fetchErr.Attempts)
}

func TestFetchRetriesRequestTimeouts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	c, err := New(Config{
		MinDelay:   time.Millisecond,
		MaxDelay:   time.Millisecond,
		MaxRetries: 2,
		Timeout:    50 * time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)
	c.retry.baseDelay = time.Millisecond
	c.retry.maxDelay = 5 * time.Millisecond

	body, err := c.Fetch(context.Background(), srv.URL)
	require.Nil(t, body, "a timed out request must never look like a fetched page")
	require.EqualValues(t, 3, calls.Load(), "timeouts are retried like any transient failure")

	var fetchErr *crawler.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 3, fetchErr.Attempts)
	require.Equal(t, srv.URL, fetchErr.URL)
}

func TestFetchExhaustsRetries(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, 2).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	require.EqualValues(t, 3, calls.Load())

	var fetchErr *crawler.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 3, fetchErr.Attempts)
	require.Equal(t, srv.URL, fetchErr.URL)
}

func TestFetchRejectsInvalidURL(t *testing.T) {
	t.Parallel()

	_, err := newTestClient(t, 2).Fetch(context.Background(), "not a url")
	var fetchErr *crawler.FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, 1, fetchErr.Attempts)
}

func TestFetchHonorsCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, 2).Fetch(ctx, srv.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
