// Package metrics exposes Prometheus instrumentation for the connection
// state machine, the channel registry, the codec pipeline, and the
// acknowledgement tracker.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "realtime"

// Registry is the prometheus registry all collectors in this package
// register against at package init, and the one Handler serves.
var Registry = prometheus.NewRegistry()

// NewRegistry replaces the package-level Registry with a fresh, empty one
// and returns it. The collectors created at package init stay registered
// on the original registry; none of them is registered on the new one.
func NewRegistry() *prometheus.Registry {
	Registry = prometheus.NewRegistry()
	return Registry
}
