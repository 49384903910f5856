package departures

import (
	"errors"
	"fmt"
)

// Kind classifies why a stop query or aggregation pass failed.
type Kind int

const (
	KindConnect Kind = iota + 1
	KindHTTPStatus
	KindHeaders
	KindTooLarge
	KindParse
	KindAlloc
	KindIncomplete
	KindUpstream
)

var (
	ErrConnect    = errors.New("connect failed")
	ErrHTTPStatus = errors.New("unexpected http status")
	ErrHeaders    = errors.New("skipping response headers failed")
	ErrTooLarge   = errors.New("response body too large")
	ErrParse      = errors.New("decoding response failed")
	ErrAlloc      = errors.New("record budget exceeded")
	ErrIncomplete = errors.New("response body incomplete")
	ErrUpstream   = errors.New("upstream api reported error")
)

var kindSentinels = map[Kind]error{
	KindConnect:    ErrConnect,
	KindHTTPStatus: ErrHTTPStatus,
	KindHeaders:    ErrHeaders,
	KindTooLarge:   ErrTooLarge,
	KindParse:      ErrParse,
	KindAlloc:      ErrAlloc,
	KindIncomplete: ErrIncomplete,
	KindUpstream:   ErrUpstream,
}

// Code is the numeric status shown on the display and in logs.
func (k Kind) Code() int {
	if k < KindConnect || k > KindUpstream {
		return -1
	}
	return -int(k)
}

func (k Kind) String() string {
	if s, ok := kindSentinels[k]; ok {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified stop failure. Detail carries the HTTP status for
// KindHTTPStatus and the API status code for KindUpstream, whose Err holds
// the API message when one was sent.
type Error struct {
	Kind   Kind
	StopID int
	Detail int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("stop %d: %s", e.StopID, e.Kind)
	if e.Detail != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{kindSentinels[e.Kind]}
	}
	return []error{kindSentinels[e.Kind], e.Err}
}

// Code returns the status code of err: 0 for nil, the kind's code for a
// classified error, and -1 for anything else.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.Code()
	}
	return -1
}

// NewError builds a classified error. Transports use it to report
// KindConnect and KindHeaders.
func NewError(kind Kind, stopID int, err error) *Error {
	return &Error{Kind: kind, StopID: stopID, Err: err}
}

// asStopError classifies err for stopID, keeping an existing classification.
func asStopError(err error, stopID int, fallback Kind) *Error {
	var e *Error
	if errors.As(err, &e) {
		if e.StopID == 0 {
			e.StopID = stopID
		}
		return e
	}
	return &Error{Kind: fallback, StopID: stopID, Err: err}
}
