package slapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busboard/internal/common/logger"
	"github.com/busboard/internal/departures"
)

const sampleBody = `{
  "StatusCode": 0,
  "Message": null,
  "ExecutionTime": 12,
  "ResponseData": {
    "LatestUpdate": "2024-03-01T08:00:00",
    "DataAge": 30,
    "Buses": [
      {"JourneyDirection": 2, "LineNumber": "118", "Destination": "Slussen", "ExpectedDateTime": "2024-03-01T08:05:00", "JourneyNumber": 42, "SiteId": 4028},
      {"JourneyDirection": 1, "LineNumber": "118", "Destination": "Farsta", "ExpectedDateTime": "2024-03-01T08:07:00", "JourneyNumber": 43, "SiteId": 4028},
      {"JourneyDirection": 2, "LineNumber": "1234", "Destination": "Slussen", "ExpectedDateTime": "2024-03-01T08:20:00", "JourneyNumber": 44, "SiteId": 4028}
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:         srv.URL,
		APIKey:          "k",
		TimeWindow:      20,
		RateLimitPerMin: 10,
		ConnectTimeout:  time.Second,
	}, logger.Nop())
}

func TestClient_URL(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://api.sl.se", APIKey: "abc", TimeWindow: 20}, logger.Nop())
	assert.Equal(t, "https://api.sl.se/api2/realtimedeparturesV4.json?key=abc&siteid=4028&timewindow=20", c.URL(4028))
}

func TestClient_QueryRoundTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4028", r.URL.Query().Get("siteid"))
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	})

	q := departures.NewQuerier(c, JSONDecoder{}, departures.DefaultQuerierConfig(), logger.Nop())
	res, err := q.Query(context.Background(), departures.StopQuery{StopID: 4028})
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, 3, cap(res.Records))
	assert.Equal(t, departures.ArrivalRecord{
		LineNumber: "118", ArrivalClock: "08:05", MinutesUntil: "04", Minutes: 4, JourneyNumber: 42, StopID: 4028,
	}, res.Records[0])
	assert.Equal(t, "123", res.Records[1].LineNumber)
	assert.Equal(t, "08:20", res.Records[1].ArrivalClock)
}

func TestClient_Non2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	q := departures.NewQuerier(c, JSONDecoder{}, departures.DefaultQuerierConfig(), logger.Nop())
	_, err := q.Query(context.Background(), departures.StopQuery{StopID: 4028})

	var de *departures.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, departures.KindHTTPStatus, de.Kind)
	assert.Equal(t, http.StatusUnauthorized, de.Detail)
}

func TestClient_ConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url, APIKey: "k", TimeWindow: 20, RateLimitPerMin: 1, ConnectTimeout: time.Second}, logger.Nop())
	_, err := c.Get(context.Background(), 4028)
	assert.ErrorIs(t, err, departures.ErrConnect)
	assert.Equal(t, -1, departures.Code(err))
}

func TestClient_RateLimited(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleBody))
	})
	c.rateLimiter = newRateLimiter(1)
	c.config.RateLimitWait = 10 * time.Millisecond

	resp, err := c.Get(context.Background(), 1)
	require.NoError(t, err)
	resp.Body.Close()

	_, err = c.Get(context.Background(), 1)
	assert.ErrorIs(t, err, departures.ErrConnect)
}

func TestRateLimiter_Refill(t *testing.T) {
	now := time.Now()
	r := newRateLimiter(2)
	r.now = func() time.Time { return now }

	require.NoError(t, r.acquire(context.Background(), time.Millisecond))
	require.NoError(t, r.acquire(context.Background(), time.Millisecond))
	assert.Error(t, r.acquire(context.Background(), time.Millisecond))

	now = now.Add(time.Minute + time.Second)
	assert.NoError(t, r.acquire(context.Background(), time.Millisecond))
}
