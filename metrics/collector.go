// Package metrics exposes cache statistics as a prometheus.Collector so
// a host application can register the cache on its own registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	tiercache "github.com/agent-isa/go-tier-cache"
)

// Source yields the current stats snapshot on every scrape.
type Source func() tiercache.StatsSnapshot

type Collector struct {
	source Source

	hits        *prometheus.Desc
	misses      *prometheus.Desc
	evictions   *prometheus.Desc
	expirations *prometheus.Desc
	demotions   *prometheus.Desc
	promotions  *prometheus.Desc
	hitRate     *prometheus.Desc
	tierBytes   *prometheus.Desc
	tierItems   *prometheus.Desc
}

func NewCollector(namespace string, source Source) *Collector {
	fqName := func(name string) string {
		return prometheus.BuildFQName(namespace, "cache", name)
	}
	return &Collector{
		source:      source,
		hits:        prometheus.NewDesc(fqName("hits_total"), "Cache lookups served from the cache.", nil, nil),
		misses:      prometheus.NewDesc(fqName("misses_total"), "Cache lookups that found no usable entry.", nil, nil),
		evictions:   prometheus.NewDesc(fqName("evictions_total"), "Entries deleted to stay within a tier budget.", nil, nil),
		expirations: prometheus.NewDesc(fqName("expirations_total"), "Entries removed because their TTL passed.", nil, nil),
		demotions:   prometheus.NewDesc(fqName("demotions_total"), "Entries moved from the memory tier to disk.", nil, nil),
		promotions:  prometheus.NewDesc(fqName("promotions_total"), "Entries moved from the disk tier to memory.", nil, nil),
		hitRate:     prometheus.NewDesc(fqName("hit_rate"), "hits / (hits + misses), 0 when idle.", nil, nil),
		tierBytes:   prometheus.NewDesc(fqName("tier_bytes_used"), "Stored bytes per tier.", []string{"tier"}, nil),
		tierItems:   prometheus.NewDesc(fqName("tier_items"), "Live entries per tier.", []string{"tier"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.evictions
	ch <- c.expirations
	ch <- c.demotions
	ch <- c.promotions
	ch <- c.hitRate
	ch <- c.tierBytes
	ch <- c.tierItems
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source()

	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.evictions, prometheus.CounterValue, float64(s.Evictions))
	ch <- prometheus.MustNewConstMetric(c.expirations, prometheus.CounterValue, float64(s.Expirations))
	ch <- prometheus.MustNewConstMetric(c.demotions, prometheus.CounterValue, float64(s.Demotions))
	ch <- prometheus.MustNewConstMetric(c.promotions, prometheus.CounterValue, float64(s.Promotions))
	ch <- prometheus.MustNewConstMetric(c.hitRate, prometheus.GaugeValue, s.HitRate)
	ch <- prometheus.MustNewConstMetric(c.tierBytes, prometheus.GaugeValue, float64(s.MemoryBytesUsed), "memory")
	ch <- prometheus.MustNewConstMetric(c.tierBytes, prometheus.GaugeValue, float64(s.DiskBytesUsed), "disk")
	ch <- prometheus.MustNewConstMetric(c.tierItems, prometheus.GaugeValue, float64(s.MemoryItems), "memory")
	ch <- prometheus.MustNewConstMetric(c.tierItems, prometheus.GaugeValue, float64(s.DiskItems), "disk")
}
