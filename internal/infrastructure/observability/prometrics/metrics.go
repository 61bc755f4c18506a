package prometrics

import (
	"sync"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry creates label-based instruments on a Prometheus registerer. Asking twice for the same
// name returns the vector registered the first time.
type Registry struct {
	reg        prometheus.Registerer
	namespace  string
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// New registers on reg, or on the default registerer when reg is nil.
func New(reg prometheus.Registerer, namespace string) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Registry{
		reg:        reg,
		namespace:  namespace,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

func (r *Registry) Counter(name string, help string, labelKeys ...string) observability.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.counters[name]; ok {
		return &counter{v: v}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Name: name, Help: help,
	}, labelKeys)
	r.reg.MustRegister(cv)
	r.counters[name] = cv
	return &counter{v: cv}
}

func (r *Registry) Histogram(name string, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.histograms[name]; ok {
		return &histogram{v: v}
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	r.reg.MustRegister(hv)
	r.histograms[name] = hv
	return &histogram{v: hv}
}

// Standard registers every instrument the services report on.
func Standard(r *Registry) (map[observability.MetricKey]observability.Counter, map[observability.MetricKey]observability.Histogram) {
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: r.Counter(string(observability.MUsecaseRequests),
			"Use case executions by outcome.", "use_case", "outcome"),
		observability.MHTTPRequests: r.Counter(string(observability.MHTTPRequests),
			"HTTP requests by route and status.", "method", "route", "status"),
		observability.MExternalRequests: r.Counter(string(observability.MExternalRequests),
			"Calls to other services by outcome.", "peer", "endpoint", "outcome"),
		observability.MEventsHandled: r.Counter(string(observability.MEventsHandled),
			"Event handler runs by event and outcome.", "event", "outcome"),
		observability.MStockUnits: r.Counter(string(observability.MStockUnits),
			"Units reserved from or released back to the warehouse ledger.", "direction"),
		observability.MOrderTransitions: r.Counter(string(observability.MOrderTransitions),
			"Orders entering each status.", "status"),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: r.Histogram(string(observability.MUsecaseDuration),
			"Use case latency.", prometheus.DefBuckets, "use_case"),
		observability.MHTTPRequestDuration: r.Histogram(string(observability.MHTTPRequestDuration),
			"HTTP request latency.", prometheus.DefBuckets, "method", "route", "status"),
		observability.MExternalRequestDuration: r.Histogram(string(observability.MExternalRequestDuration),
			"Latency of calls to other services.", prometheus.DefBuckets, "peer", "endpoint"),
	}
	return counters, histograms
}
