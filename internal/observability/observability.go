// Package observability defines the telemetry ports the fulfillment services log, trace and
// count through. Adapters live under infrastructure/observability.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the telemetry handed to services, workers and handlers.
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

// Metrics looks instruments up by key. Unknown keys yield no-op instruments.
type Metrics interface {
	Counter(name MetricKey) Counter
	Histogram(name MetricKey) Histogram
}

type MetricKey string

type Tracer interface {
	Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

// Counter and Histogram take labels by name; label sets must match the registered keys.
type Counter interface {
	Add(delta float64, labels ...Label)
}

type Histogram interface {
	Observe(value float64, labels ...Label)
}

type Label struct{ Key, Value string }

func L(k, v string) Label { return Label{Key: k, Value: v} }

type Field struct {
	Key   string
	Value any
}

func F(k string, v any) Field { return Field{Key: k, Value: v} }

// Err is the "error" field. A nil error is logged as an empty string.
func Err(err error) Field {
	if err == nil {
		return F("error", "")
	}
	return F("error", err.Error())
}

// Logger is structured: msg is a snake_case event name, details go in fields.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}
