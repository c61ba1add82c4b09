package config

import "time"

type TelemetryCfg struct {
	// Interval is how often a stats summary is logged.
	Interval time.Duration `yaml:"interval"`
}

func (cfg *TelemetryCfg) Enabled() bool {
	return cfg != nil
}
