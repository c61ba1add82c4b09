package sweeper

import "time"

// NoOpSweeper is used when the background sweep is disabled. Budgets are
// still enforced at write time and expiration still happens lazily on
// read; only the periodic maintenance is absent.
type NoOpSweeper struct{}

// Nudge does nothing.
func (NoOpSweeper) Nudge() {}

// ForceSweep does nothing and returns nil immediately.
func (NoOpSweeper) ForceSweep(timeout time.Duration) error {
	return nil
}

// Metrics always returns zero values.
func (NoOpSweeper) Metrics() (sweeps, expired, demoted, evicted int64) {
	return 0, 0, 0, 0
}

// Close does nothing and returns nil.
func (NoOpSweeper) Close() error {
	return nil
}
