package config

import "time"

type MemoryCfg struct {
	// LimitBytes caps the total stored size of memory-tier entries.
	// Zero disables the memory tier entirely: every entry goes to disk.
	LimitBytes int64 `yaml:"limit_bytes"`
}

type DiskCfg struct {
	// LimitBytes caps the total stored size of disk-tier entries.
	// Zero disables the disk tier.
	LimitBytes int64 `yaml:"limit_bytes"`

	// IOTimeout bounds a single read/write/delete against the backing
	// file system. On timeout a read degrades to a miss and a write
	// fails the set; nothing hangs indefinitely.
	IOTimeout time.Duration `yaml:"io_timeout"`
}
