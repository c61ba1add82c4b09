package tiercache

import "github.com/agent-isa/go-tier-cache/internal/store"

// StatsSnapshot is a point-in-time view of cache counters and tier
// occupancy.
type StatsSnapshot = store.StatsSnapshot
