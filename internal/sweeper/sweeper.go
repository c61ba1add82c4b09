// Package sweeper runs the background eviction/expiration engine: a
// periodic sweep that purges expired entries and walks each tier back
// within its byte budget, demoting memory entries to disk where possible.
package sweeper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/agent-isa/go-tier-cache/config"
	"github.com/agent-isa/go-tier-cache/internal/rate"
	"github.com/agent-isa/go-tier-cache/internal/store"
)

var ErrSweeperNotResponded = errors.New("sweeper not responded")

type Sweeper interface {
	// Nudge schedules an immediate sweep without blocking; used after a
	// write that hit budget pressure.
	Nudge()
	// ForceSweep runs a sweep and waits for it to finish.
	ForceSweep(timeout time.Duration) error
	Metrics() (sweeps, expired, demoted, evicted int64)
	Close() error
}

type Worker struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.SweepCfg
	logger   *slog.Logger
	store    *store.Store
	clock    clock.Clock
	jitter   *rate.Jitter
	counters *sweeperCounters
	invokeCh chan chan struct{}
}

func New(
	ctx context.Context,
	cfg *config.SweepCfg,
	logger *slog.Logger,
	st *store.Store,
	clk clock.Clock,
) Sweeper {
	if !cfg.Enabled() {
		return &NoOpSweeper{}
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Worker{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		logger:   logger,
		store:    st,
		clock:    clk,
		jitter:   rate.NewJitter(ctx, cfg.DemotionsPerSec),
		counters: newSweeperCounters(),
		invokeCh: make(chan chan struct{}, 1),
	}
	return w.run()
}

func (w *Worker) Nudge() {
	select {
	case w.invokeCh <- nil:
	default:
		// a sweep is already pending
	}
}

func (w *Worker) ForceSweep(timeout time.Duration) error {
	after := time.NewTimer(timeout)
	defer after.Stop()

	done := make(chan struct{})
	select {
	case <-w.ctx.Done():
		return nil
	case w.invokeCh <- done:
	case <-after.C:
		return ErrSweeperNotResponded
	}

	select {
	case <-w.ctx.Done():
	case <-done:
	case <-after.C:
		return ErrSweeperNotResponded
	}
	return nil
}

func (w *Worker) Metrics() (sweeps, expired, demoted, evicted int64) {
	return w.counters.snapshot()
}

func (w *Worker) Close() error {
	w.cancel()
	return nil
}

func (w *Worker) run() *Worker {
	w.logger.Info("sweeper is running",
		"interval", w.cfg.Interval.String(), "demotions_per_sec", w.cfg.DemotionsPerSec)

	go w.provider()
	go w.consumer()

	return w
}

// provider schedules a sweep once per configured interval.
func (w *Worker) provider() {
	tick := w.clock.Ticker(w.cfg.Interval)
	defer tick.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-tick.C:
			select {
			case <-w.ctx.Done():
				return
			case w.invokeCh <- nil:
			default:
				// previous sweep still queued
			}
		}
	}
}

// consumer executes sweeps one at a time.
func (w *Worker) consumer() {
	defer w.logger.Info("sweeper is stopped")

	for {
		select {
		case <-w.ctx.Done():
			return
		case done := <-w.invokeCh:
			w.sweep()
			if done != nil {
				close(done)
			}
		}
	}
}

func (w *Worker) sweep() {
	w.counters.sweeps.Add(1)

	if expired := w.store.PurgeExpired(w.ctx); expired > 0 {
		w.counters.expired.Add(int64(expired))
	}

	// Budget passes are paced one entry at a time so demotion writes
	// cannot saturate the disk backend.
	for {
		demoted, evicted, done := w.store.EnforceMemoryBudget(w.ctx, 1)
		w.counters.demoted.Add(int64(demoted))
		w.counters.evicted.Add(int64(evicted))
		if done {
			break
		}
		select {
		case <-w.ctx.Done():
			return
		case <-w.jitter.Chan():
		}
	}
	for {
		evicted, done := w.store.EnforceDiskBudget(w.ctx, 1)
		w.counters.evicted.Add(int64(evicted))
		if done {
			break
		}
		select {
		case <-w.ctx.Done():
			return
		case <-w.jitter.Chan():
		}
	}
}
