package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMemoryLimitBytes = 100 << 20 // 100 MB
	DefaultDiskLimitBytes   = 1 << 30   // 1 GB
	DefaultTTL              = time.Hour
	DefaultSweepInterval    = 5 * time.Minute
	DefaultCompressionMin   = 1024
	DefaultCompressionLevel = 6
	DefaultIOTimeout        = 5 * time.Second
	DefaultDemotionsPerSec  = 128
	DefaultSnapshotPath     = "snapshot/index.dump"
)

// Default returns a configuration with both tiers enabled at their
// standard budgets, compression above 1KB and a five minute sweep.
func Default() *Cache {
	return &Cache{
		Memory:      MemoryCfg{LimitBytes: DefaultMemoryLimitBytes},
		Disk:        DiskCfg{LimitBytes: DefaultDiskLimitBytes, IOTimeout: DefaultIOTimeout},
		Lifetime:    LifetimeCfg{DefaultTTL: DefaultTTL},
		Compression: &CompressionCfg{ThresholdBytes: DefaultCompressionMin, Level: DefaultCompressionLevel},
		Sweep:       &SweepCfg{Interval: DefaultSweepInterval, DemotionsPerSec: DefaultDemotionsPerSec},
	}
}

// Normalize fixes up derived and out-of-range values. It never touches
// the tier limits: zero limits are meaningful (a disabled tier).
func (cfg *Cache) Normalize() {
	if cfg.Memory.LimitBytes < 0 {
		cfg.Memory.LimitBytes = 0
	}
	if cfg.Disk.LimitBytes < 0 {
		cfg.Disk.LimitBytes = 0
	}
	if cfg.Disk.IOTimeout <= 0 {
		cfg.Disk.IOTimeout = DefaultIOTimeout
	}
	if cfg.Lifetime.DefaultTTL < 0 {
		cfg.Lifetime.DefaultTTL = 0
	}
	if cfg.Compression.Enabled() {
		if cfg.Compression.ThresholdBytes <= 0 {
			cfg.Compression.ThresholdBytes = DefaultCompressionMin
		}
		if cfg.Compression.Level < 0 {
			cfg.Compression.Level = 0
		}
		if cfg.Compression.Level > 9 {
			cfg.Compression.Level = 9
		}
	}
	if cfg.Sweep.Enabled() {
		if cfg.Sweep.Interval <= 0 {
			cfg.Sweep.Interval = DefaultSweepInterval
		}
		if cfg.Sweep.DemotionsPerSec <= 0 {
			cfg.Sweep.DemotionsPerSec = DefaultDemotionsPerSec
		}
	}
	if cfg.Persistence.Enabled() && cfg.Persistence.Path == "" {
		cfg.Persistence.Path = DefaultSnapshotPath
	}
	if cfg.Telemetry.Enabled() && cfg.Telemetry.Interval <= 0 {
		cfg.Telemetry.Interval = time.Minute
	}
}

// Load reads a yaml file over the defaults, so absent keys keep their
// documented default values while explicit zeros stay zero.
func Load(path string) (*Cache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config yaml file %s: %w", path, err)
	}

	cfg := Default()
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml from %s: %w", path, err)
	}
	cfg.Normalize()

	return cfg, nil
}
