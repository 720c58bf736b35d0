package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterExposesSharedCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	// Increments go through the package-level collectors, exactly as the
	// handlers and catalog client do.
	UpstreamRetries.WithLabelValues("孤立注册源").Add(2)
	ProxyRequests.WithLabelValues("path", "rewritten").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]float64)
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == "孤立注册源" || lp.GetValue() == "rewritten" {
					byName[fam.GetName()] = m.GetCounter().GetValue()
				}
			}
		}
	}

	assert.Equal(t, 2.0, byName["vodbridge_upstream_retries_total"])
	assert.Equal(t, 1.0, byName["vodbridge_proxy_requests_total"])
}

func TestRegisterDuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	assert.Panics(t, func() { Register(reg) })
}
