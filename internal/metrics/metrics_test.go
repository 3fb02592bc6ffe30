package metrics_test

import (
	"testing"

	"github.com/gxo-labs/gxotel/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectors_Registers(t *testing.T) {
	p := metrics.NewPrometheusRegistryProvider()
	c, err := metrics.NewCollectors(p.Registry())
	require.NoError(t, err)

	c.ProviderLoads.WithLabelValues(metrics.OutcomeLoaded).Inc()
	c.Shutdowns.Inc()

	families, err := p.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "gxotel_provider_loads_total")
	assert.Contains(t, names, "gxotel_shutdowns_total")
}

func TestNewCollectors_ReusesExisting(t *testing.T) {
	p := metrics.NewPrometheusRegistryProvider()
	first, err := metrics.NewCollectors(p.Registry())
	require.NoError(t, err)
	second, err := metrics.NewCollectors(p.Registry())
	require.NoError(t, err)

	second.Shutdowns.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.Shutdowns))
}

func TestNewProcessRegistryProvider(t *testing.T) {
	p := metrics.NewProcessRegistryProvider()
	families, err := p.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
