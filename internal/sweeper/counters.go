package sweeper

import "sync/atomic"

type sweeperCounters struct {
	sweeps  atomic.Int64
	expired atomic.Int64
	demoted atomic.Int64
	evicted atomic.Int64
}

func newSweeperCounters() *sweeperCounters {
	return &sweeperCounters{}
}

func (c *sweeperCounters) snapshot() (sweeps, expired, demoted, evicted int64) {
	return c.sweeps.Load(), c.expired.Load(), c.demoted.Load(), c.evicted.Load()
}
