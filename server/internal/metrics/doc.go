// Package metrics keeps the server's counters and gauges on a private
// prometheus registry and serves them at /metrics through promhttp.
package metrics
