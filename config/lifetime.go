package config

import "time"

type LifetimeCfg struct {
	// DefaultTTL applies to entries stored without an explicit TTL.
	// Zero means such entries never expire and are removed by
	// eviction only.
	DefaultTTL time.Duration `yaml:"default_ttl"`
}
