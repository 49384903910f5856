package board

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/busboard/internal/common/logger"
	"github.com/busboard/internal/departures"
)

// Aggregator produces one board from a set of stops
type Aggregator interface {
	Aggregate(ctx context.Context, stops []departures.StopQuery) (*departures.Board, error)
}

// SnapshotStore keeps the last good board across restarts
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, name string, b *departures.Board) error
	LoadSnapshot(ctx context.Context, name string) (*departures.Board, error)
}

// Alerter is told when the board keeps failing to refresh
type Alerter interface {
	SendBoardFailure(ctx context.Context, board string, code, consecutive int, cause error) error
}

type Config struct {
	Name               string
	Stops              []departures.StopQuery
	PollInterval       time.Duration
	AlertAfterFailures int
}

// Poller runs aggregation passes one after another and hands each outcome to
// the display.
type Poller struct {
	config     Config
	aggregator Aggregator
	state      *State
	store      SnapshotStore
	alerter    Alerter
	display    io.Writer
	logger     logger.Logger
	now        func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewPoller wires a poller. store and alerter may be nil.
func NewPoller(cfg Config, aggregator Aggregator, state *State, store SnapshotStore, alerter Alerter, display io.Writer, log logger.Logger) *Poller {
	return &Poller{
		config:     cfg,
		aggregator: aggregator,
		state:      state,
		store:      store,
		alerter:    alerter,
		display:    display,
		logger:     log.With("board", cfg.Name),
		now:        time.Now,
	}
}

func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.logger.Info("Starting board poller",
		"stops", len(p.config.Stops),
		"poll_interval", p.config.PollInterval)

	p.restore(ctx)

	// Initial pass
	p.RunPass(ctx)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Board poller stopped")
			return nil
		case <-ticker.C:
			p.RunPass(ctx)
		}
	}
}

func (p *Poller) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return fmt.Errorf("poller not running")
	}

	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// RunPass performs one aggregation pass and updates state, store and display
func (p *Poller) RunPass(ctx context.Context) {
	log := p.logger.With("pass_id", uuid.NewString())
	started := p.now()

	b, err := p.aggregator.Aggregate(ctx, p.config.Stops)
	if err != nil {
		p.handleFailure(ctx, log, err)
		return
	}

	p.state.Succeeded(b, p.now())
	log.Info("Board updated",
		"records", len(b.Records),
		"duration", p.now().Sub(started))

	if p.store != nil {
		if err := p.store.SaveSnapshot(ctx, p.config.Name, b); err != nil {
			log.Warn("Failed to persist board snapshot", "error", err)
		}
	}

	if err := Render(p.display, b, false); err != nil {
		log.Warn("Failed to render board", "error", err)
	}
}

func (p *Poller) handleFailure(ctx context.Context, log logger.Logger, err error) {
	code := departures.Code(err)
	failures := p.state.Failed(code, err, p.now())

	log.Error("Board pass failed",
		"code", code,
		"consecutive_failures", failures,
		"error", err)

	if p.alerter != nil && p.config.AlertAfterFailures > 0 && failures == p.config.AlertAfterFailures {
		if alertErr := p.alerter.SendBoardFailure(ctx, p.config.Name, code, failures, err); alertErr != nil {
			log.Warn("Failed to send board alert", "error", alertErr)
		}
	}

	status := p.state.Status()
	if status.Board != nil {
		err = Render(p.display, status.Board, true)
	} else {
		err = RenderError(p.display, code)
	}
	if err != nil {
		log.Warn("Failed to render board", "error", err)
	}
}

func (p *Poller) restore(ctx context.Context) {
	if p.store == nil {
		return
	}

	b, err := p.store.LoadSnapshot(ctx, p.config.Name)
	if err != nil {
		p.logger.Warn("Failed to load board snapshot", "error", err)
		return
	}
	if b == nil {
		p.logger.Info("No board snapshot found")
		return
	}

	p.state.Restore(b)
	p.logger.Info("Restored board snapshot",
		"records", len(b.Records),
		"generated_at", b.GeneratedAt)
}
