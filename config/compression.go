package config

// CompressionCfg configures transparent zlib compression.
//   - Supported levels: 0 (store only) through 9 (best compression).
//   - Level 6 is the usual speed/ratio trade-off.
type CompressionCfg struct {
	// ThresholdBytes is the minimum value size considered for
	// compression. Smaller values are stored verbatim.
	ThresholdBytes int `yaml:"threshold_bytes"`

	// Level is the zlib compression level (0-9).
	Level int `yaml:"level"`
}

func (cfg *CompressionCfg) Enabled() bool {
	return cfg != nil
}
