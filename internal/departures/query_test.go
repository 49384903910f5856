package departures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busboard/internal/common/logger"
)

var testDocs = mapDecoder{
	"stopA": {
		LatestUpdate: "2024-03-01T08:00:00",
		Buses: []RawBusEntry{
			{JourneyDirection: 2, LineNumber: "118", ExpectedDateTime: "2024-03-01T08:03:00", JourneyNumber: 1},
			{JourneyDirection: 2, LineNumber: "118", ExpectedDateTime: "2024-03-01T08:10:00", JourneyNumber: 2},
			{JourneyDirection: 1, LineNumber: "118", ExpectedDateTime: "2024-03-01T08:12:00", JourneyNumber: 3},
		},
	},
	"upstream": {StatusCode: 1002, Message: "Key is invalid"},
	"empty":    {LatestUpdate: "2024-03-01T08:00:00"},
}

func testConfig() QuerierConfig {
	cfg := DefaultQuerierConfig()
	cfg.IdleTimeout = time.Second
	return cfg
}

func newTestQuerier(steps ...func() (*Response, error)) (*Querier, *scriptedTransport) {
	tr := &scriptedTransport{steps: steps}
	return NewQuerier(tr, testDocs, testConfig(), logger.Nop()), tr
}

func TestQuery_FiltersDirectionAndLead(t *testing.T) {
	q, _ := newTestQuerier(ok("stopA"))

	res, err := q.Query(context.Background(), StopQuery{StopID: 10, MinimumLeadMinutes: 5})
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, 2, res.Records[0].JourneyNumber)
	assert.Equal(t, 10, res.Records[0].StopID)
	assert.Equal(t, 3, cap(res.Records), "buffer is sized to the decoded entry count")
}

func TestQuery_EmptyResponse(t *testing.T) {
	q, _ := newTestQuerier(ok("empty"))

	res, err := q.Query(context.Background(), StopQuery{StopID: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Records)
}

func TestQuery_Failures(t *testing.T) {
	tests := []struct {
		name   string
		step   func() (*Response, error)
		kind   Kind
		detail int
	}{
		{name: "connect", step: connectErr(), kind: KindConnect},
		{name: "status", step: status(503), kind: KindHTTPStatus, detail: 503},
		{name: "headers", step: func() (*Response, error) {
			return nil, NewError(KindHeaders, 0, errors.New("header timeout"))
		}, kind: KindHeaders},
		{name: "parse", step: ok("not json"), kind: KindParse},
		{name: "upstream", step: ok("upstream"), kind: KindUpstream, detail: 1002},
		{name: "too large", step: func() (*Response, error) {
			return &Response{StatusCode: 200, ContentLength: 6000, Body: bodyOf("")}, nil
		}, kind: KindTooLarge, detail: 6000},
		{name: "incomplete", step: func() (*Response, error) {
			return &Response{StatusCode: 200, ContentLength: 100, Body: bodyOf("stopA")}, nil
		}, kind: KindIncomplete, detail: 95},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, _ := newTestQuerier(tc.step)

			res, err := q.Query(context.Background(), StopQuery{StopID: 77})
			assert.Nil(t, res)

			var e *Error
			require.True(t, errors.As(err, &e), "got %v", err)
			assert.Equal(t, tc.kind, e.Kind)
			assert.Equal(t, 77, e.StopID)
			assert.Equal(t, tc.detail, e.Detail)
			assert.Equal(t, tc.kind.Code(), Code(err))
		})
	}
}

func TestQuery_TooLargeSkipsDecode(t *testing.T) {
	dec := &countingDecoder{}
	tr := &scriptedTransport{steps: []func() (*Response, error){func() (*Response, error) {
		return &Response{StatusCode: 200, ContentLength: 5001, Body: bodyOf("")}, nil
	}}}
	q := NewQuerier(tr, dec, testConfig(), logger.Nop())

	res, err := q.Query(context.Background(), StopQuery{StopID: 1})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Zero(t, dec.calls)
}

func TestQuery_RecordBudget(t *testing.T) {
	q, _ := newTestQuerier(ok("stopA"))
	q.config.MaxRecordsPerStop = 2

	_, err := q.Query(context.Background(), StopQuery{StopID: 5})
	assert.ErrorIs(t, err, ErrAlloc)
	assert.Equal(t, -6, Code(err))
}

type countingDecoder struct{ calls int }

func (d *countingDecoder) Decode([]byte) (*Document, error) {
	d.calls++
	return &Document{}, nil
}

func TestQuery_UpstreamMessage(t *testing.T) {
	q, _ := newTestQuerier(ok("upstream"))

	_, err := q.Query(context.Background(), StopQuery{StopID: 77})

	assert.ErrorIs(t, err, ErrUpstream)
	assert.EqualError(t, err, "stop 77: upstream api reported error (1002): Key is invalid")
}
