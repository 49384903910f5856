package slapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/busboard/internal/common/logger"
	"github.com/busboard/internal/departures"
)

const (
	departuresPath = "/api2/realtimedeparturesV4.json"
	UserAgent      = "busboard/1.0"
)

// Config for the SL realtime departures client
type Config struct {
	BaseURL         string
	APIKey          string
	TimeWindow      int
	RateLimitPerMin int
	ConnectTimeout  time.Duration
	RateLimitWait   time.Duration
}

// Client issues departures requests. It implements departures.Transport.
type Client struct {
	config      Config
	httpClient  *http.Client
	logger      logger.Logger
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	tokens    chan struct{}
	interval  time.Duration
	lastReset time.Time
	mu        sync.Mutex
	now       func() time.Time
}

func NewClient(cfg Config, log logger.Logger) *Client {
	if cfg.RateLimitWait <= 0 {
		cfg.RateLimitWait = 5 * time.Second
	}

	// Only dialing and headers are bounded here; the body is read under the
	// caller's inactivity timeout.
	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:          2,
			MaxIdleConnsPerHost:   1,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   cfg.ConnectTimeout,
			ResponseHeaderTimeout: cfg.ConnectTimeout,
		},
	}

	return &Client{
		config:      cfg,
		httpClient:  client,
		logger:      log,
		rateLimiter: newRateLimiter(cfg.RateLimitPerMin),
	}
}

func newRateLimiter(requestsPerMin int) *rateLimiter {
	if requestsPerMin < 1 {
		requestsPerMin = 1
	}
	tokens := make(chan struct{}, requestsPerMin)
	for i := 0; i < requestsPerMin; i++ {
		tokens <- struct{}{}
	}

	return &rateLimiter{
		tokens:    tokens,
		interval:  time.Minute,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// refill tops the bucket up once per interval
func (r *rateLimiter) refill() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.now().Sub(r.lastReset) < r.interval {
		return
	}
	for len(r.tokens) < cap(r.tokens) {
		r.tokens <- struct{}{}
	}
	r.lastReset = r.now()
}

func (r *rateLimiter) acquire(ctx context.Context, wait time.Duration) error {
	r.refill()

	select {
	case <-r.tokens:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return fmt.Errorf("rate limit exceeded")
	}
}

// URL builds the request URL for a stop
func (c *Client) URL(stopID int) string {
	q := url.Values{}
	q.Set("siteid", strconv.Itoa(stopID))
	q.Set("timewindow", strconv.Itoa(c.config.TimeWindow))
	q.Set("key", c.config.APIKey)
	return c.config.BaseURL + departuresPath + "?" + q.Encode()
}

// Get starts the departures request for stopID. The caller owns the body.
func (c *Client) Get(ctx context.Context, stopID int) (*departures.Response, error) {
	if err := c.rateLimiter.acquire(ctx, c.config.RateLimitWait); err != nil {
		return nil, departures.NewError(departures.KindConnect, stopID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(stopID), nil)
	if err != nil {
		return nil, departures.NewError(departures.KindConnect, stopID, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Starting request", "stop_id", stopID, "host", req.URL.Host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, departures.NewError(departures.KindConnect, stopID, fmt.Errorf("connect failed: %w", err))
	}

	return &departures.Response{
		StatusCode:    resp.StatusCode,
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}, nil
}
