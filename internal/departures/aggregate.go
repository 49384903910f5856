package departures

import (
	"context"
	"time"

	"github.com/busboard/internal/common/logger"
)

// StopQuerier fetches one stop's arrivals, retrying as it sees fit.
type StopQuerier interface {
	QueryWithRetries(ctx context.Context, stop StopQuery) (*StopResult, error)
}

// Aggregator merges the arrivals of several stops into one board.
type Aggregator struct {
	querier StopQuerier
	logger  logger.Logger
	now     func() time.Time
}

func NewAggregator(querier StopQuerier, log logger.Logger) *Aggregator {
	return &Aggregator{
		querier: querier,
		logger:  log,
		now:     time.Now,
	}
}

// Aggregate queries stops in order and merges them by journey number, keeping
// the earliest arrival of each journey. Any stop failing after its retries
// aborts the pass with that stop's error and no records.
func (a *Aggregator) Aggregate(ctx context.Context, stops []StopQuery) (*Board, error) {
	results := make([]*StopResult, 0, len(stops))
	capacity := 0
	for _, stop := range stops {
		result, err := a.querier.QueryWithRetries(ctx, stop)
		if err != nil {
			a.logger.Error("Aggregation aborted",
				"stop_id", stop.StopID,
				"code", Code(err),
				"error", err)
			return nil, err
		}
		results = append(results, result)
		capacity += cap(result.Records)
	}

	board := &Board{
		Records:     make([]ArrivalRecord, 0, capacity),
		GeneratedAt: a.now(),
	}
	for i, result := range results {
		if i == 0 {
			board.Records = append(board.Records, result.Records...)
			continue
		}
		board.Records = mergeEarliest(board.Records, result.Records)
	}

	SortByArrival(board.Records)

	a.logger.Debug("Aggregation finished", "stops", len(stops), "records", len(board.Records))
	return board, nil
}

// mergeEarliest folds incoming into merged. A journey already present only
// takes the incoming clock and stop when it is strictly earlier.
func mergeEarliest(merged, incoming []ArrivalRecord) []ArrivalRecord {
	for _, rec := range incoming {
		found := false
		for j := range merged {
			if merged[j].JourneyNumber != rec.JourneyNumber {
				continue
			}
			found = true
			if Earlier(rec, merged[j]) {
				merged[j].ArrivalClock = rec.ArrivalClock
				merged[j].StopID = rec.StopID
				merged[j].MinutesUntil = rec.MinutesUntil
				merged[j].Minutes = rec.Minutes
			}
			break
		}
		if !found {
			merged = append(merged, rec)
		}
	}
	return merged
}
