package metric

import "github.com/prometheus/client_golang/prometheus"

// LiveSource reports instances not yet destroyed.
type LiveSource interface {
	Live() int
}

// SizeSource reports the number of stored entries.
type SizeSource interface {
	Len() int
}

// Collector reads gauges from live state on every scrape.
type Collector struct {
	instances LiveSource
	sessions  SizeSource

	instancesDesc *prometheus.Desc
	sessionsDesc  *prometheus.Desc
}

// NewCollector creates a collector over the authenticator's live
// instances and the open-session store. Either source may be nil.
func NewCollector(instances LiveSource, sessions SizeSource) *Collector {
	return &Collector{
		instances: instances,
		sessions:  sessions,
		instancesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "instances", "active"),
			"Authentication instances currently alive",
			nil, nil,
		),
		sessionsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "sessions", "open"),
			"Validator sessions currently open",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.instancesDesc
	ch <- c.sessionsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.instances != nil {
		ch <- prometheus.MustNewConstMetric(c.instancesDesc, prometheus.GaugeValue, float64(c.instances.Live()))
	}
	if c.sessions != nil {
		ch <- prometheus.MustNewConstMetric(c.sessionsDesc, prometheus.GaugeValue, float64(c.sessions.Len()))
	}
}
