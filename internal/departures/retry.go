package departures

import "context"

// QueryWithRetries runs Query up to the configured number of attempts, one
// after another with no pause. The first success is returned; if every
// attempt fails the error of the last attempt is returned.
func (q *Querier) QueryWithRetries(ctx context.Context, stop StopQuery) (*StopResult, error) {
	attempts := q.config.Retries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var result *StopResult
		result, err = q.Query(ctx, stop)
		if err == nil {
			return result, nil
		}

		q.logger.Warn("Stop query failed",
			"stop_id", stop.StopID,
			"attempt", attempt,
			"of", attempts,
			"code", Code(err),
			"error", err)
	}
	return nil, err
}
