package observability

// Metric keys. The HTTP, use case and external request families are the RED set every
// service reports; the rest are fulfillment counters.
const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MHTTPRequests            MetricKey = "http_requests_total"
	MHTTPRequestDuration     MetricKey = "http_request_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
	MEventsHandled           MetricKey = "events_handled_total"

	// MStockUnits counts units leaving (reserved) or re-entering (released) the ledger.
	MStockUnits MetricKey = "warehouse_stock_units_total"
	// MOrderTransitions counts orders entering each status.
	MOrderTransitions MetricKey = "order_status_transitions_total"
)
