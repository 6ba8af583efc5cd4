package bump

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	usedDesc = prometheus.NewDesc(
		"allocmany_bump_arena_used_bytes",
		"Bytes handed out by the arena, alignment padding included.",
		[]string{"arena"}, nil)
	capacityDesc = prometheus.NewDesc(
		"allocmany_bump_arena_capacity_bytes",
		"Fixed capacity of the arena.",
		[]string{"arena"}, nil)
	allocsDesc = prometheus.NewDesc(
		"allocmany_bump_arena_allocations_total",
		"Total number of successful allocations.",
		[]string{"arena"}, nil)
	failuresDesc = prometheus.NewDesc(
		"allocmany_bump_arena_allocation_failures_total",
		"Total number of allocation requests the arena refused.",
		[]string{"arena"}, nil)
)

// Collector exports the metrics of one arena.
type Collector struct {
	name  string
	arena *Arena
}

// NewCollector returns a prometheus.Collector for a, labelled with name.
func NewCollector(name string, a *Arena) *Collector {
	return &Collector{name: name, arena: a}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- usedDesc
	ch <- capacityDesc
	ch <- allocsDesc
	ch <- failuresDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	m := c.arena.Metrics()
	ch <- prometheus.MustNewConstMetric(usedDesc, prometheus.GaugeValue, float64(m.Used), c.name)
	ch <- prometheus.MustNewConstMetric(capacityDesc, prometheus.GaugeValue, float64(m.Capacity), c.name)
	ch <- prometheus.MustNewConstMetric(allocsDesc, prometheus.CounterValue, float64(m.Allocs), c.name)
	ch <- prometheus.MustNewConstMetric(failuresDesc, prometheus.CounterValue, float64(m.Failures), c.name)
}
