package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/util"

	"go.uber.org/zap"
)

// DefaultUserAgents is the identity pool used when config provides none.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// BrowserHeaders go out with every attempt alongside a rotated User-Agent.
// Accept-Encoding is left to net/http so gzip is decoded transparently.
var BrowserHeaders = map[string]string{
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Connection":      "keep-alive",
	"Cache-Control":   "max-age=0",
}

// NavigationHeaders returns the static headers a browser sends when landing on origin.
func NavigationHeaders(origin string) map[string]string {
	return map[string]string{
		"Referer":                   origin,
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "same-origin",
		"Sec-Fetch-User":            "?1",
		"Upgrade-Insecure-Requests": "1",
	}
}

type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	DelayMin   time.Duration
	DelayMax   time.Duration
	Timeout    time.Duration
	UserAgents []string
}

// DefaultConfig mirrors the shipped config.yml.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
		DelayMin:   2 * time.Second,
		DelayMax:   5 * time.Second,
		Timeout:    30 * time.Second,
		UserAgents: DefaultUserAgents,
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Stats are cumulative over the client's lifetime.
type Stats struct {
	Attempts int64
	Retries  int64
	Failures int64
}

// Client fetches pages for one source with identity rotation, retry and backoff.
// A Client is safe for concurrent use but each source is expected to own one.
type Client struct {
	cfg     Config
	hc      *http.Client
	limiter *util.HostLimiter
	headers map[string]string
	log     *zap.Logger

	// Sleep is swapped out in tests.
	Sleep SleepFunc

	mu  sync.Mutex
	rnd *rand.Rand

	attempts atomic.Int64
	retries  atomic.Int64
	failures atomic.Int64
}

// New builds a client. headers are the source's static headers, layered over the browser set.
func New(cfg Config, limiter *util.HostLimiter, headers map[string]string, log *zap.Logger) *Client {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.DelayMax < cfg.DelayMin {
		cfg.DelayMax = cfg.DelayMin
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = DefaultUserAgents
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		headers: headers,
		log:     log,
		Sleep:   sleepCtx,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Stats returns a snapshot of attempt counters.
func (c *Client) Stats() Stats {
	return Stats{
		Attempts: c.attempts.Load(),
		Retries:  c.retries.Load(),
		Failures: c.failures.Load(),
	}
}

// Fetch GETs url and returns the body of the first 200 response. Every other outcome
// is retried up to MaxRetries attempts; exhaustion returns an error wrapping
// domain.ErrFetchFailed.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			c.retries.Add(1)
		}
		c.attempts.Add(1)
		c.log.Info("fetching", zap.String("url", url), zap.Int("attempt", attempt))

		status, body, err := c.do(ctx, url)
		if err == nil && status == http.StatusOK {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		switch {
		case err != nil:
			c.log.Warn("request error", zap.String("url", url), zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
		case status == http.StatusForbidden:
			c.log.Warn("403 forbidden, may be blocked", zap.String("url", url), zap.Int("attempt", attempt))
			lastErr = fmt.Errorf("status %d", status)
		case status == http.StatusTooManyRequests:
			c.log.Warn("429 too many requests, backing off", zap.String("url", url), zap.Int("attempt", attempt))
			lastErr = fmt.Errorf("status %d", status)
		default:
			c.log.Warn("unexpected status", zap.String("url", url), zap.Int("status", status), zap.Int("attempt", attempt))
			lastErr = fmt.Errorf("status %d", status)
		}

		if attempt == c.cfg.MaxRetries {
			break
		}
		if err := c.Sleep(ctx, Backoff(status, err, attempt, c.cfg.RetryDelay)); err != nil {
			return nil, err
		}
	}

	c.failures.Add(1)
	c.log.Error("giving up", zap.String("url", url), zap.Int("attempts", c.cfg.MaxRetries), zap.Error(lastErr))
	return nil, fmt.Errorf("%w: %s after %d attempts: %v", domain.ErrFetchFailed, url, c.cfg.MaxRetries, lastErr)
}

// Backoff is the wait before the next attempt. 429 backs off hardest, then 403 and
// transport errors grow with the attempt number, other statuses wait a flat base.
func Backoff(status int, err error, attempt int, base time.Duration) time.Duration {
	switch {
	case err != nil:
		return base * time.Duration(attempt)
	case status == http.StatusTooManyRequests:
		return base * time.Duration(attempt) * 2
	case status == http.StatusForbidden:
		return base * time.Duration(attempt)
	default:
		return base
	}
}

func (c *Client) do(ctx context.Context, url string) (int, []byte, error) {
	if err := c.limiter.WaitURL(ctx, url); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("User-Agent", c.userAgent())
	for k, v := range BrowserHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64<<10))
		return res.StatusCode, nil, nil
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("read body: %w", err)
	}
	return res.StatusCode, body, nil
}

func (c *Client) userAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.UserAgents[c.rnd.Intn(len(c.cfg.UserAgents))]
}

// Pause sleeps a random duration in [DelayMin, DelayMax]. Extractors call it between pages.
func (c *Client) Pause(ctx context.Context) error {
	d := c.cfg.DelayMin
	if span := c.cfg.DelayMax - c.cfg.DelayMin; span > 0 {
		c.mu.Lock()
		d += time.Duration(c.rnd.Int63n(int64(span) + 1))
		c.mu.Unlock()
	}
	c.log.Debug("rate limiting", zap.Duration("sleep", d))
	return c.Sleep(ctx, d)
}

// IsFetchFailure reports whether err came from an exhausted Fetch.
func IsFetchFailure(err error) bool {
	return errors.Is(err, domain.ErrFetchFailed)
}
