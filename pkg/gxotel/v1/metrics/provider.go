// Package metrics exposes the registry gxotel reports its own health on.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// RegistryProvider gives access to the Prometheus registry holding gxotel's
// self-monitoring collectors, so hosts can serve or merge it.
type RegistryProvider interface {
	// Registry returns the Prometheus registry.
	Registry() *prometheus.Registry
}
