// Package tiercache is a keyed byte cache with a memory tier, an
// optional disk tier behind a pluggable virtual file system, TTL
// expiration, LRU eviction with memory-to-disk demotion, transparent
// compression and namespace-scoped bulk operations.
package tiercache

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/agent-isa/go-tier-cache/config"
	"github.com/agent-isa/go-tier-cache/internal/codec"
	"github.com/agent-isa/go-tier-cache/internal/dump"
	"github.com/agent-isa/go-tier-cache/internal/store"
	"github.com/agent-isa/go-tier-cache/internal/sweeper"
	"github.com/agent-isa/go-tier-cache/internal/telemetry"
	"github.com/agent-isa/go-tier-cache/vfs"
)

// NoExpiry stores an entry without a TTL: it is removed by eviction or
// explicit deletion only.
const NoExpiry = store.NoExpiry

type Cache struct {
	store     *store.Store
	sweeper   sweeper.Sweeper
	telemetry telemetry.Logger
	dumper    *dump.Dumper
	logger    *slog.Logger
	cls       context.CancelFunc
}

// New builds a cache from cfg. fs backs the disk tier and the snapshot;
// passing nil disables both. A nil cfg means config.Default().
func New(ctx context.Context, cfg *config.Cache, fs vfs.FileSystem, logger *slog.Logger) (*Cache, error) {
	return newCache(ctx, cfg, fs, logger, clock.New())
}

func newCache(ctx context.Context, cfg *config.Cache, fs vfs.FileSystem, logger *slog.Logger, clk clock.Clock) (*Cache, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.Normalize()
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(ctx)

	var cdc *codec.Codec
	if cfg.Compression.Enabled() {
		cdc = codec.New(cfg.Compression.ThresholdBytes, cfg.Compression.Level)
	}

	st := store.New(cfg, fs, cdc, clk, logger)

	var dumper *dump.Dumper
	if cfg.Persistence.Enabled() && fs != nil {
		dumper = dump.New(cfg.Persistence, fs, st, clk)
		if err := dumper.Load(ctx); err != nil {
			// the cache is an optimization, not a source of truth: a
			// broken snapshot means a cold start, not a failed one
			logger.Warn("snapshot restore incomplete, starting with what loaded", "err", err)
		}
	}

	sw := sweeper.New(ctx, cfg.Sweep, logger, st, clk)
	tele := telemetry.New(ctx, cfg, logger, st, sw)

	return &Cache{
		store:     st,
		sweeper:   sw,
		telemetry: tele,
		dumper:    dumper,
		logger:    logger,
		cls:       cancel,
	}, nil
}

// Set stores value under (namespace, key). ttl > 0 sets an explicit
// expiry, ttl == 0 applies the configured default, NoExpiry disables
// expiration. Returns ErrCapacity when the entry fits neither tier even
// after an eviction attempt, or a wrapped I/O error when the disk tier
// write for this entry fails.
func (c *Cache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	pressure, err := c.store.Set(ctx, namespace, key, value, ttl)
	if pressure {
		c.sweeper.Nudge()
	}
	return err
}

// Get returns the value stored under (namespace, key). Absence,
// expiration, disk failure and corruption are all indistinguishable: the
// second result is simply false.
func (c *Cache) Get(ctx context.Context, namespace, key string) ([]byte, bool) {
	return c.store.Get(ctx, namespace, key)
}

// Delete removes the entry for (namespace, key); absent entries are a
// no-op.
func (c *Cache) Delete(ctx context.Context, namespace, key string) {
	c.store.Delete(ctx, namespace, key)
}

// Clear removes every entry under namespace without touching other
// namespaces.
func (c *Cache) Clear(ctx context.Context, namespace string) {
	c.store.Clear(ctx, namespace)
}

// Stats returns a snapshot of hit/miss/eviction counters and tier
// occupancy.
func (c *Cache) Stats() StatsSnapshot {
	return c.store.Stats()
}

// ForceSweep runs a full maintenance sweep synchronously.
func (c *Cache) ForceSweep(timeout time.Duration) error {
	return c.sweeper.ForceSweep(timeout)
}

// Close stops the background workers, writing a snapshot first when
// persistence is enabled. It is safe to call more than once.
func (c *Cache) Close() error {
	if c.dumper != nil {
		if err := c.dumper.Dump(context.Background()); err != nil {
			c.logger.Warn("snapshot on close failed", "err", err)
		}
	}
	c.cls()
	return nil
}
