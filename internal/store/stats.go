package store

// StatsSnapshot is a point-in-time view of the cache counters and tier
// occupancy. HitRate is 0 when no lookups have happened.
type StatsSnapshot struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Evictions   int64 `json:"evictions"`
	Expirations int64 `json:"expirations"`
	Demotions   int64 `json:"demotions"`
	Promotions  int64 `json:"promotions"`

	MemoryBytesUsed int64 `json:"memory_bytes_used"`
	DiskBytesUsed   int64 `json:"disk_bytes_used"`
	MemoryItems     int64 `json:"memory_items"`
	DiskItems       int64 `json:"disk_items"`

	HitRate float64 `json:"hit_rate"`
}
