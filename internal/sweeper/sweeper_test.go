package sweeper

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/agent-isa/go-tier-cache/config"
	"github.com/agent-isa/go-tier-cache/internal/store"
	"github.com/agent-isa/go-tier-cache/vfs"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSweeperFixture(t *testing.T, mut func(cfg *config.Cache)) (*store.Store, Sweeper, *clock.Mock) {
	t.Helper()

	cfg := config.Default()
	cfg.Compression = nil
	cfg.Sweep = &config.SweepCfg{Interval: time.Minute, DemotionsPerSec: 1000}
	if mut != nil {
		mut(cfg)
	}
	fs, err := vfs.NewLocal(t.TempDir())
	require.NoError(t, err)

	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))

	st := store.New(cfg, fs, nil, mock, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	sw := New(ctx, cfg.Sweep, discardLogger(), st, mock)
	t.Cleanup(func() {
		require.NoError(t, sw.Close())
		cancel()
	})
	return st, sw, mock
}

func TestForceSweep_PurgesExpired(t *testing.T) {
	ctx := context.Background()
	st, sw, mock := newSweeperFixture(t, nil)

	_, err := st.Set(ctx, "ns", "stale", []byte("v"), time.Minute)
	require.NoError(t, err)
	_, err = st.Set(ctx, "ns", "live", []byte("v"), store.NoExpiry)
	require.NoError(t, err)

	mock.Add(2 * time.Minute)
	require.NoError(t, sw.ForceSweep(5*time.Second))

	require.Equal(t, 1, st.Len())
	sweeps, expired, _, _ := sw.Metrics()
	require.GreaterOrEqual(t, sweeps, int64(1))
	require.EqualValues(t, 1, expired)
}

func TestForceSweep_EnforcesBudgets(t *testing.T) {
	ctx := context.Background()
	var cfg *config.Cache
	st, sw, _ := newSweeperFixture(t, func(c *config.Cache) { cfg = c })

	v := bytes.Repeat([]byte("x"), 8)
	for _, key := range []string{"a", "b", "c"} {
		_, err := st.Set(ctx, "ns", key, v, store.NoExpiry)
		require.NoError(t, err)
	}

	cfg.Memory.LimitBytes = 8
	require.NoError(t, sw.ForceSweep(5*time.Second))

	snap := st.Stats()
	require.LessOrEqual(t, snap.MemoryBytesUsed, int64(8))
	require.EqualValues(t, 1, snap.MemoryItems)
	require.EqualValues(t, 2, snap.DiskItems)

	_, _, demoted, _ := sw.Metrics()
	require.EqualValues(t, 2, demoted)
}

func TestNudge_DoesNotBlock(t *testing.T) {
	_, sw, _ := newSweeperFixture(t, nil)

	// repeated nudges collapse into one pending sweep
	for i := 0; i < 100; i++ {
		sw.Nudge()
	}
	require.NoError(t, sw.ForceSweep(5*time.Second))
}

func TestForceSweep_AfterClose(t *testing.T) {
	cfg := config.Default()
	cfg.Compression = nil
	cfg.Sweep = &config.SweepCfg{Interval: time.Minute, DemotionsPerSec: 1000}
	fs, err := vfs.NewLocal(t.TempDir())
	require.NoError(t, err)
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	st := store.New(cfg, fs, nil, mock, discardLogger())

	sw := New(context.Background(), cfg.Sweep, discardLogger(), st, mock)
	require.NoError(t, sw.Close())

	// a closed sweeper never hangs the caller
	require.NoError(t, sw.ForceSweep(time.Second))
}

func TestPeriodicSweep(t *testing.T) {
	ctx := context.Background()
	st, sw, mock := newSweeperFixture(t, nil)

	_, err := st.Set(ctx, "ns", "stale", []byte("v"), time.Minute)
	require.NoError(t, err)

	// let the worker register its ticker before advancing the clock
	time.Sleep(20 * time.Millisecond)
	mock.Add(2 * time.Minute) // fires the interval ticker past the TTL

	require.Eventually(t, func() bool {
		return st.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	_, expired, _, _ := sw.Metrics()
	require.EqualValues(t, 1, expired)
}
