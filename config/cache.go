// Package config describes the configuration surface of the tiered cache.
package config

// Cache groups configuration of all cache subsystems.
// Pointer sections can be set to nil to disable the subsystem.
type Cache struct {
	Memory MemoryCfg `yaml:"memory"`

	Disk DiskCfg `yaml:"disk"`

	// Lifetime controls TTL defaults for entries stored without an
	// explicit TTL.
	Lifetime LifetimeCfg `yaml:"lifetime"`

	// Compression configures transparent compression of values above a
	// size threshold. If nil, values are always stored verbatim.
	Compression *CompressionCfg `yaml:"compression"`

	// Sweep configures the background eviction/expiration engine.
	// If nil, expired entries are only discarded lazily on read and
	// budgets are enforced solely at write time.
	Sweep *SweepCfg `yaml:"sweep"`

	// Persistence configures snapshotting of the cache index so a
	// restart does not start cold. If nil, the cache starts empty.
	Persistence *PersistenceCfg `yaml:"persistence"`

	// Telemetry configures periodic stats logging. If nil, no
	// periodic logs are emitted.
	Telemetry *TelemetryCfg `yaml:"telemetry"`
}
