package board

import (
	"sync"
	"time"

	"github.com/busboard/internal/departures"
)

// Status is a snapshot of the poller's view of the board
type Status struct {
	Board               *departures.Board `json:"board,omitempty"`
	Stale               bool              `json:"stale"`
	LastCode            int               `json:"last_code"`
	LastError           string            `json:"last_error,omitempty"`
	LastPassAt          time.Time         `json:"last_pass_at"`
	ConsecutiveFailures int               `json:"consecutive_failures"`
}

// State holds the latest good board and the outcome of the last pass.
// It is written by the poller and read by the status server.
type State struct {
	mu     sync.RWMutex
	status Status
}

func NewState() *State {
	return &State{}
}

func (s *State) Succeeded(b *departures.Board, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = Status{Board: b, LastPassAt: at}
}

// Failed records a failed pass and returns the consecutive failure count
func (s *State) Failed(code int, err error, at time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Stale = s.status.Board != nil
	s.status.LastCode = code
	s.status.LastError = err.Error()
	s.status.LastPassAt = at
	s.status.ConsecutiveFailures++
	return s.status.ConsecutiveFailures
}

// Restore seeds the state with a persisted board from an earlier run
func (s *State) Restore(b *departures.Board) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Board == nil {
		s.status.Board = b
		s.status.Stale = true
	}
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
