// Package telemetry logs periodic cache activity summaries.
package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/agent-isa/go-tier-cache/config"
	"github.com/agent-isa/go-tier-cache/internal/bytes"
	"github.com/agent-isa/go-tier-cache/internal/store"
	"github.com/agent-isa/go-tier-cache/internal/sweeper"
)

type Logger interface {
	Interval() time.Duration
	Close() error
}

type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.Cache
	logger   *slog.Logger
	store    *store.Store
	sweeper  sweeper.Sweeper
	interval time.Duration
}

func New(
	ctx context.Context,
	cfg *config.Cache,
	logger *slog.Logger,
	st *store.Store,
	sw sweeper.Sweeper,
) *Logs {
	ctx, cancel := context.WithCancel(ctx)
	l := &Logs{
		ctx:     ctx,
		cancel:  cancel,
		cfg:     cfg,
		logger:  logger,
		store:   st,
		sweeper: sw,
	}
	if cfg.Telemetry.Enabled() {
		l.interval = cfg.Telemetry.Interval
		go l.loop()
	}
	return l
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	memLimit := bytes.FmtMem(uint64(l.cfg.Memory.LimitBytes))
	diskLimit := bytes.FmtMem(uint64(l.cfg.Disk.LimitBytes))

	prev := l.store.Stats()
	prevSweeps, _, _, _ := l.sweeper.Metrics()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			cur := l.store.Stats()
			sweeps, expired, demoted, evicted := l.sweeper.Metrics()

			common := []any{"interval", l.interval.String()}

			l.logger.Info("cache_activity",
				append(common,
					"hits", cur.Hits-prev.Hits,
					"misses", cur.Misses-prev.Misses,
					"expirations", cur.Expirations-prev.Expirations,
					"evictions", cur.Evictions-prev.Evictions,
					"demotions", cur.Demotions-prev.Demotions,
					"promotions", cur.Promotions-prev.Promotions,
					"hit_rate", cur.HitRate,
				)...,
			)

			if sweeps > prevSweeps {
				l.logger.Info("sweeper_activity",
					append(common,
						"sweeps", sweeps,
						"expired_total", expired,
						"demoted_total", demoted,
						"evicted_total", evicted,
					)...,
				)
			}

			l.logger.Info("storage",
				append(common,
					"memory", bytes.FmtMem(uint64(cur.MemoryBytesUsed)),
					"memory_items", cur.MemoryItems,
					"memory_limit", memLimit,
					"disk", bytes.FmtMem(uint64(cur.DiskBytesUsed)),
					"disk_items", cur.DiskItems,
					"disk_limit", diskLimit,
				)...,
			)

			prev = cur
			prevSweeps = sweeps
		}
	}
}
