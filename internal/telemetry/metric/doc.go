// Package metric exposes sod's Prometheus metrics.
//
// Registry counts authenticator events (instances, frames, attempts,
// back-off, transaction outcomes and open sessions) and serves them,
// together with the Go runtime and process collectors, on an HTTP
// handler. Collector reports point-in-time gauges read from live state
// at scrape time.
package metric
