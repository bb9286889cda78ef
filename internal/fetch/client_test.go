package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"jobwatch-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(retries int, headers map[string]string) (*Client, *[]time.Duration) {
	cfg := Config{
		MaxRetries: retries,
		RetryDelay: time.Second,
		DelayMin:   2 * time.Second,
		DelayMax:   5 * time.Second,
		Timeout:    5 * time.Second,
	}
	c := New(cfg, nil, headers, nil)
	var waits []time.Duration
	c.Sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c, waits := testClient(3, nil)
	body, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", string(body))
	assert.Equal(t, []time.Duration{2 * time.Second}, *waits)
	assert.Equal(t, int64(1), c.Stats().Retries)
}

func TestFetchExhaustedWrapsFetchFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, waits := testClient(3, nil)
	_, err := c.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailed))
	assert.True(t, IsFetchFailure(err))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
	assert.Equal(t, int64(3), c.Stats().Attempts)
	assert.Equal(t, int64(1), c.Stats().Failures)
}

func TestBackoffOrdering(t *testing.T) {
	base := 5 * time.Second
	for attempt := 1; attempt <= 3; attempt++ {
		tooMany := Backoff(http.StatusTooManyRequests, nil, attempt, base)
		forbidden := Backoff(http.StatusForbidden, nil, attempt, base)
		flat := Backoff(http.StatusInternalServerError, nil, attempt, base)

		assert.Greater(t, tooMany, forbidden, "attempt %d", attempt)
		assert.GreaterOrEqual(t, forbidden, flat, "attempt %d", attempt)
		assert.Equal(t, base, flat)
	}
	assert.Equal(t, 10*time.Second, Backoff(0, errors.New("timeout"), 2, base))
}

func TestFetchSendsIdentityAndSourceHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, _ := testClient(1, NavigationHeaders("https://in.indeed.com/"))
	_, err := c.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, DefaultUserAgents, got.Get("User-Agent"))
	assert.Equal(t, "en-US,en;q=0.9", got.Get("Accept-Language"))
	assert.Equal(t, "https://in.indeed.com/", got.Get("Referer"))
	assert.Equal(t, "navigate", got.Get("Sec-Fetch-Mode"))
}

func TestPauseWithinBounds(t *testing.T) {
	c, waits := testClient(1, nil)
	for i := 0; i < 20; i++ {
		require.NoError(t, c.Pause(context.Background()))
	}
	for _, d := range *waits {
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second)
	}
}

func TestFetchStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, _ := testClient(3, nil)
	ctx, cancel := context.WithCancel(context.Background())
	c.Sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}
	_, err := c.Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}
