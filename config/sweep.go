package config

import "time"

type SweepCfg struct {
	// Interval is how often the background sweep runs. Each sweep
	// purges expired entries and then enforces the per-tier budgets.
	Interval time.Duration `yaml:"interval"`

	// DemotionsPerSec bounds how many memory-to-disk demotions (and
	// budget evictions) a sweep performs per second, so background
	// maintenance cannot saturate a network blob backend.
	DemotionsPerSec int `yaml:"demotions_per_sec"`
}

func (cfg *SweepCfg) Enabled() bool {
	return cfg != nil
}
