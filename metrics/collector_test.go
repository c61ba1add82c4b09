package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	tiercache "github.com/agent-isa/go-tier-cache"
)

func TestCollector(t *testing.T) {
	snap := tiercache.StatsSnapshot{
		Hits:            7,
		Misses:          3,
		Evictions:       2,
		Expirations:     1,
		Demotions:       4,
		Promotions:      5,
		MemoryBytesUsed: 1024,
		DiskBytesUsed:   4096,
		MemoryItems:     10,
		DiskItems:       20,
		HitRate:         0.7,
	}
	c := NewCollector("app", func() tiercache.StatsSnapshot { return snap })

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	expected := `
# HELP app_cache_hits_total Cache lookups served from the cache.
# TYPE app_cache_hits_total counter
app_cache_hits_total 7
# HELP app_cache_misses_total Cache lookups that found no usable entry.
# TYPE app_cache_misses_total counter
app_cache_misses_total 3
# HELP app_cache_hit_rate hits / (hits + misses), 0 when idle.
# TYPE app_cache_hit_rate gauge
app_cache_hit_rate 0.7
# HELP app_cache_tier_bytes_used Stored bytes per tier.
# TYPE app_cache_tier_bytes_used gauge
app_cache_tier_bytes_used{tier="disk"} 4096
app_cache_tier_bytes_used{tier="memory"} 1024
# HELP app_cache_tier_items Live entries per tier.
# TYPE app_cache_tier_items gauge
app_cache_tier_items{tier="disk"} 20
app_cache_tier_items{tier="memory"} 10
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"app_cache_hits_total",
		"app_cache_misses_total",
		"app_cache_hit_rate",
		"app_cache_tier_bytes_used",
		"app_cache_tier_items",
	))
}

func TestCollector_SourceIsCalledPerScrape(t *testing.T) {
	var calls int
	c := NewCollector("app", func() tiercache.StatsSnapshot {
		calls++
		return tiercache.StatsSnapshot{Hits: int64(calls)}
	})

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	for i := 1; i <= 3; i++ {
		mfs, err := reg.Gather()
		require.NoError(t, err)
		require.NotEmpty(t, mfs)
	}
	require.Equal(t, 3, calls)
}
