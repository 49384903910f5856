package departures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// ReadBody streams body into buf. length is the declared content length, or
// a negative value when unknown. A declared length larger than buf fails
// with KindTooLarge before anything is read. The idle timer restarts after
// every successful read; when it fires, or the body ends, while bytes are
// still owed the result is KindIncomplete. body is always closed.
func ReadBody(ctx context.Context, body io.ReadCloser, length int64, buf []byte, idle time.Duration) ([]byte, error) {
	defer body.Close()

	if length > int64(len(buf)) {
		return nil, &Error{Kind: KindTooLarge, Detail: int(length)}
	}

	var timedOut atomic.Bool
	timer := time.AfterFunc(idle, func() {
		timedOut.Store(true)
		body.Close()
	})
	defer timer.Stop()

	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()

	limit := len(buf)
	if length >= 0 {
		limit = int(length)
	}

	read := 0
	for read < limit {
		n, err := body.Read(buf[read:limit])
		if n > 0 {
			read += n
			timer.Reset(idle)
		}
		if length >= 0 && read == limit {
			break
		}
		if errors.Is(err, io.EOF) {
			if length >= 0 {
				return nil, &Error{Kind: KindIncomplete, Detail: limit - read, Err: io.ErrUnexpectedEOF}
			}
			return buf[:read], nil
		}
		if err != nil {
			switch {
			case ctx.Err() != nil:
				return nil, &Error{Kind: KindIncomplete, Detail: limit - read, Err: ctx.Err()}
			case timedOut.Load():
				return nil, &Error{Kind: KindIncomplete, Detail: limit - read, Err: fmt.Errorf("no data for %s", idle)}
			default:
				return nil, &Error{Kind: KindIncomplete, Detail: limit - read, Err: err}
			}
		}
	}

	if length < 0 {
		more := !drained(body)
		switch {
		case ctx.Err() != nil:
			return nil, &Error{Kind: KindIncomplete, Err: ctx.Err()}
		case timedOut.Load():
			return nil, &Error{Kind: KindIncomplete, Err: fmt.Errorf("no data for %s", idle)}
		case more:
			return nil, &Error{Kind: KindTooLarge, Detail: read}
		}
	}
	return buf[:read], nil
}

// drained reports whether body has nothing left after filling the buffer.
// A stalled body reads as drained once the idle timer closes it, so callers
// must check the timer afterwards.
func drained(body io.Reader) bool {
	var probe [1]byte
	n, _ := body.Read(probe[:])
	return n == 0
}
