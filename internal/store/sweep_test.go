package store

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/agent-isa/go-tier-cache/config"
	"github.com/agent-isa/go-tier-cache/vfs"
)

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()
	st, mock := newTestStore(t, nil)

	_, err := st.Set(ctx, "ns", "short", []byte("v"), time.Minute)
	require.NoError(t, err)
	_, err = st.Set(ctx, "ns", "long", []byte("v"), time.Hour)
	require.NoError(t, err)
	_, err = st.Set(ctx, "ns", "forever", []byte("v"), NoExpiry)
	require.NoError(t, err)

	mock.Add(2 * time.Minute)
	require.Equal(t, 1, st.PurgeExpired(ctx))
	require.Equal(t, 2, st.Len())

	mock.Add(2 * time.Hour)
	require.Equal(t, 1, st.PurgeExpired(ctx))
	require.Equal(t, 1, st.Len())
	require.EqualValues(t, 2, st.Stats().Expirations)

	require.Equal(t, 0, st.PurgeExpired(ctx))
}

func TestEnforceMemoryBudget_DemotesColdestFirst(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Compression = nil
	fs, err := vfs.NewLocal(t.TempDir())
	require.NoError(t, err)
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	st := New(cfg, fs, nil, mock, discardLogger())

	v := bytes.Repeat([]byte("x"), 8)
	_, err = st.Set(ctx, "ns", "cold", v, NoExpiry)
	require.NoError(t, err)
	_, err = st.Set(ctx, "ns", "warm", v, NoExpiry)
	require.NoError(t, err)
	_, err = st.Set(ctx, "ns", "hot", v, NoExpiry)
	require.NoError(t, err)

	// shrink the budget so only one entry fits
	cfg.Memory.LimitBytes = 8

	demoted, evicted, done := st.EnforceMemoryBudget(ctx, 1)
	require.Equal(t, 1, demoted)
	require.Equal(t, 0, evicted)
	require.False(t, done)

	demoted, evicted, done = st.EnforceMemoryBudget(ctx, 10)
	require.Equal(t, 1, demoted)
	require.Equal(t, 0, evicted)
	require.True(t, done)

	snap := st.Stats()
	require.EqualValues(t, 1, snap.MemoryItems)
	require.EqualValues(t, 2, snap.DiskItems)
	require.EqualValues(t, 2, snap.Demotions)

	// demoted values survive the move
	got, ok := st.Get(ctx, "ns", "cold")
	require.True(t, ok)
	require.Equal(t, v, got)
}

func TestEnforceMemoryBudget_EvictsWhenDiskDisabled(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t, func(cfg *config.Cache) {
		cfg.Disk.LimitBytes = 0
	})

	v := bytes.Repeat([]byte("x"), 8)
	_, err := st.Set(ctx, "ns", "a", v, NoExpiry)
	require.NoError(t, err)
	_, err = st.Set(ctx, "ns", "b", v, NoExpiry)
	require.NoError(t, err)

	st.cfg.Memory.LimitBytes = 8

	demoted, evicted, done := st.EnforceMemoryBudget(ctx, 10)
	require.Equal(t, 0, demoted)
	require.Equal(t, 1, evicted)
	require.True(t, done)

	_, ok := st.Get(ctx, "ns", "a")
	require.False(t, ok)
	_, ok = st.Get(ctx, "ns", "b")
	require.True(t, ok)
}

func TestEnforceMemoryBudget_PurgesExpiredVictims(t *testing.T) {
	ctx := context.Background()
	st, mock := newTestStore(t, nil)

	_, err := st.Set(ctx, "ns", "stale", bytes.Repeat([]byte("x"), 8), time.Minute)
	require.NoError(t, err)
	_, err = st.Set(ctx, "ns", "live", bytes.Repeat([]byte("x"), 8), NoExpiry)
	require.NoError(t, err)

	mock.Add(2 * time.Minute)
	st.cfg.Memory.LimitBytes = 8

	demoted, evicted, done := st.EnforceMemoryBudget(ctx, 1)
	require.Equal(t, 0, demoted)
	require.Equal(t, 0, evicted)
	require.True(t, done)

	snap := st.Stats()
	require.EqualValues(t, 1, snap.Expirations)
	require.EqualValues(t, 1, snap.MemoryItems)
}

func TestEnforceDiskBudget(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t, func(cfg *config.Cache) {
		cfg.Memory.LimitBytes = 0
	})

	v := bytes.Repeat([]byte("x"), 8)
	_, err := st.Set(ctx, "ns", "cold", v, NoExpiry)
	require.NoError(t, err)
	_, err = st.Set(ctx, "ns", "hot", v, NoExpiry)
	require.NoError(t, err)

	st.cfg.Disk.LimitBytes = 8

	evicted, done := st.EnforceDiskBudget(ctx, 10)
	require.Equal(t, 1, evicted)
	require.True(t, done)

	_, ok := st.Get(ctx, "ns", "cold")
	require.False(t, ok)
	_, ok = st.Get(ctx, "ns", "hot")
	require.True(t, ok)
	require.EqualValues(t, 1, st.Stats().Evictions)
}

// failingFS rejects writes so demotion has to fall back to eviction.
type failingFS struct {
	vfs.FileSystem
}

func (f *failingFS) Write(context.Context, string, []byte) error {
	return context.DeadlineExceeded
}

func TestDemotion_WriteFailureDropsEntry(t *testing.T) {
	ctx := context.Background()

	cfg := config.Default()
	cfg.Compression = nil
	inner, err := vfs.NewLocal(t.TempDir())
	require.NoError(t, err)
	mock := clock.NewMock()
	mock.Set(time.Unix(1700000000, 0))
	st := New(cfg, &failingFS{FileSystem: inner}, nil, mock, discardLogger())

	_, err = st.Set(ctx, "ns", "k", bytes.Repeat([]byte("x"), 8), NoExpiry)
	require.NoError(t, err)

	cfg.Memory.LimitBytes = 4
	demoted, evicted, done := st.EnforceMemoryBudget(ctx, 10)
	require.Equal(t, 0, demoted)
	require.Equal(t, 1, evicted)
	require.True(t, done)
	require.Equal(t, 0, st.Len())
}
