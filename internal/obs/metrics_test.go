package obs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewMetrics("orderdesk", reg)
	require.NoError(t, err)

	m.OrdersSubmitted.Inc()
	m.OrdersRejected.WithLabelValues("missing_client").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersSubmitted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OrdersRejected.WithLabelValues("missing_client")))

	count, err := testutil.GatherAndCount(reg, "orderdesk_orders_submitted_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewMetrics_SecondRegistrationTolerated(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewMetrics("orderdesk", reg)
	require.NoError(t, err)

	second, err := NewMetrics("orderdesk", reg)
	require.NoError(t, err)

	second.OrdersSubmitted.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(first.OrdersSubmitted))
}

func TestDiscard(t *testing.T) {
	m := Discard()
	m.OrderGrandTotal.Observe(10)
	m.CatalogSyncs.WithLabelValues("ok").Inc()
}
