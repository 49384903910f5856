package departures

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/busboard/internal/common/logger"
)

// Transport issues the departures request for one stop.
type Transport interface {
	Get(ctx context.Context, stopID int) (*Response, error)
}

// Response is a started HTTP response. ContentLength is negative when the
// server did not declare one.
type Response struct {
	StatusCode    int
	ContentLength int64
	Body          io.ReadCloser
}

// Decoder turns a response body into a departures snapshot.
type Decoder interface {
	Decode(body []byte) (*Document, error)
}

// QuerierConfig bounds a single stop query.
type QuerierConfig struct {
	BodyCapacity      int
	IdleTimeout       time.Duration
	MaxRecordsPerStop int
	Retries           int
}

// DefaultQuerierConfig mirrors the limits of the display device.
func DefaultQuerierConfig() QuerierConfig {
	return QuerierConfig{
		BodyCapacity:      5000,
		IdleTimeout:       30 * time.Second,
		MaxRecordsPerStop: 64,
		Retries:           3,
	}
}

// Querier runs request/response cycles against one departures API.
type Querier struct {
	transport Transport
	decoder   Decoder
	config    QuerierConfig
	logger    logger.Logger
}

func NewQuerier(transport Transport, decoder Decoder, cfg QuerierConfig, log logger.Logger) *Querier {
	return &Querier{
		transport: transport,
		decoder:   decoder,
		config:    cfg,
		logger:    log,
	}
}

// Query fetches and filters the upcoming arrivals of one stop. It does not
// retry; see QueryWithRetries.
func (q *Querier) Query(ctx context.Context, stop StopQuery) (*StopResult, error) {
	resp, err := q.transport.Get(ctx, stop.StopID)
	if err != nil {
		return nil, asStopError(err, stop.StopID, KindConnect)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &Error{Kind: KindHTTPStatus, StopID: stop.StopID, Detail: resp.StatusCode}
	}

	q.logger.Debug("Response started",
		"stop_id", stop.StopID,
		"status_code", resp.StatusCode,
		"content_length", resp.ContentLength)

	body, err := ReadBody(ctx, resp.Body, resp.ContentLength, make([]byte, q.config.BodyCapacity), q.config.IdleTimeout)
	if err != nil {
		return nil, asStopError(err, stop.StopID, KindIncomplete)
	}

	q.logger.Debug("Response body", "stop_id", stop.StopID, "body", string(body))

	doc, err := q.decoder.Decode(body)
	if err != nil {
		return nil, &Error{Kind: KindParse, StopID: stop.StopID, Err: err}
	}

	if doc.StatusCode != 0 {
		e := &Error{Kind: KindUpstream, StopID: stop.StopID, Detail: doc.StatusCode}
		if doc.Message != "" {
			e.Err = errors.New(doc.Message)
		}
		return nil, e
	}

	if len(doc.Buses) > q.config.MaxRecordsPerStop {
		return nil, &Error{Kind: KindAlloc, StopID: stop.StopID, Detail: len(doc.Buses)}
	}

	result := &StopResult{
		StopID:  stop.StopID,
		Records: make([]ArrivalRecord, 0, len(doc.Buses)),
	}
	for _, entry := range doc.Buses {
		if rec, ok := NewArrivalRecord(entry, doc, stop.StopID, stop.MinimumLeadMinutes); ok {
			result.Records = append(result.Records, rec)
		}
	}

	q.logger.Debug("Stop queried",
		"stop_id", stop.StopID,
		"entries", len(doc.Buses),
		"matching", len(result.Records))

	return result, nil
}
