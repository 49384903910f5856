package departures

import (
	"context"
	"errors"
	"io"
	"strings"
)

type nopBody struct {
	io.Reader
	closed bool
}

func (b *nopBody) Close() error {
	b.closed = true
	return nil
}

func bodyOf(s string) *nopBody {
	return &nopBody{Reader: strings.NewReader(s)}
}

// scriptedTransport answers each Get with the next step of its script.
type scriptedTransport struct {
	steps []func() (*Response, error)
	calls map[int]int
}

func (s *scriptedTransport) Get(_ context.Context, stopID int) (*Response, error) {
	if s.calls == nil {
		s.calls = map[int]int{}
	}
	i := 0
	for _, n := range s.calls {
		i += n
	}
	s.calls[stopID]++
	if i >= len(s.steps) {
		return nil, errors.New("script exhausted")
	}
	return s.steps[i]()
}

func ok(body string) func() (*Response, error) {
	return func() (*Response, error) {
		return &Response{StatusCode: 200, ContentLength: int64(len(body)), Body: bodyOf(body)}, nil
	}
}

func status(code int) func() (*Response, error) {
	return func() (*Response, error) {
		return &Response{StatusCode: code, ContentLength: 0, Body: bodyOf("")}, nil
	}
}

func connectErr() func() (*Response, error) {
	return func() (*Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
}

// mapDecoder returns the document registered for a body.
type mapDecoder map[string]*Document

func (m mapDecoder) Decode(body []byte) (*Document, error) {
	doc, found := m[string(body)]
	if !found {
		return nil, errors.New("unexpected token")
	}
	return doc, nil
}

// stubQuerier serves canned results per stop for aggregator tests.
type stubQuerier struct {
	results map[int]*StopResult
	errs    map[int]error
	order   []int
}

func (s *stubQuerier) QueryWithRetries(_ context.Context, stop StopQuery) (*StopResult, error) {
	s.order = append(s.order, stop.StopID)
	if err := s.errs[stop.StopID]; err != nil {
		return nil, err
	}
	res := s.results[stop.StopID]
	out := &StopResult{StopID: res.StopID, Records: make([]ArrivalRecord, len(res.Records), cap(res.Records))}
	copy(out.Records, res.Records)
	return out, nil
}

func stopResult(stopID int, recs ...ArrivalRecord) *StopResult {
	for i := range recs {
		recs[i].StopID = stopID
	}
	return &StopResult{StopID: stopID, Records: recs}
}
