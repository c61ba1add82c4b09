package config

type PersistenceCfg struct {
	// Path is where the index snapshot lives inside the cache's file
	// system. Snapshots are written on Close and loaded on startup.
	Path string `yaml:"path"`

	// Gzip compresses the snapshot stream.
	Gzip bool `yaml:"gzip"`
}

func (cfg *PersistenceCfg) Enabled() bool {
	return cfg != nil
}
