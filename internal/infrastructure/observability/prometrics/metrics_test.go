package prometrics

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterIsRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "")

	a := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	b := r.Counter("usecase_requests_total", "help", "use_case", "outcome")
	a.Add(1, observability.L("use_case", "warehouse.reserve_cart"), observability.L("outcome", "success"))
	b.Add(2, observability.L("use_case", "warehouse.reserve_cart"), observability.L("outcome", "success"))

	cv, ok := r.counters["usecase_requests_total"]
	require.True(t, ok)
	got := testutil.ToFloat64(cv.WithLabelValues("warehouse.reserve_cart", "success"))
	assert.Equal(t, float64(3), got)
}

func TestStandardInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	counters, histograms := Standard(New(reg, "fulfillment"))

	counters[observability.MHTTPRequests].Add(1,
		observability.L("method", "GET"),
		observability.L("route", "GET /health"),
		observability.L("status", "200"),
	)
	histograms[observability.MUsecaseDuration].Observe(0.2, observability.L("use_case", "order.create"))
	counters[observability.MStockUnits].Add(3, observability.L("direction", "reserved"))
	counters[observability.MOrderTransitions].Add(1, observability.L("status", "NEW"))

	n, err := testutil.GatherAndCount(reg,
		"fulfillment_http_requests_total",
		"fulfillment_usecase_duration_seconds",
		"fulfillment_warehouse_stock_units_total",
		"fulfillment_order_status_transitions_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Len(t, counters, 6)
	assert.Len(t, histograms, 3)
}
