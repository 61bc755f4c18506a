package application

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fault"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanPrefix     = "UC."
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// IDGenerator hands out record identifiers.
type IDGenerator interface {
	NewID() string
}

// Instrument carries the telemetry every use case reports: a span, RED metrics and exactly
// one use_case_done log line.
type Instrument struct {
	log          observability.Logger
	tracer       observability.Tracer
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
	metrics      observability.Metrics
}

func NewInstrument(service string, tel observability.Observability) Instrument {
	if tel == nil {
		tel = observability.Nop()
	}
	m := tel.Metrics()
	return Instrument{
		log:          tel.Logger().With(observability.F("service", service)),
		tracer:       tel.Tracer(),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
		metrics:      m,
	}
}

// Counter returns a service-specific counter such as MStockUnits.
func (in Instrument) Counter(key observability.MetricKey) observability.Counter {
	if in.metrics == nil {
		return observability.NopCounter()
	}
	return in.metrics.Counter(key)
}

func (in Instrument) Logger(ctx context.Context) observability.Logger {
	return logctx.FromOr(ctx, in.log)
}

// Run executes fn as the named use case. fields become span attributes and log fields.
func (in Instrument) Run(ctx context.Context, useCase string, fields []observability.Field, fn func(ctx context.Context) error) (err error) {
	attrs := make([]attribute.KeyValue, 0, len(fields)+1)
	attrs = append(attrs, attribute.String("use_case", useCase))
	for _, f := range fields {
		attrs = append(attrs, attribute.String(f.Key, fmt.Sprint(f.Value)))
	}
	ctx, span := in.tracer.Start(ctx, spanPrefix+useCase, attrs...)

	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase)).With(fields...)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	start := time.Now()

	defer func() {
		outcome, status := "success", fault.Status(err)
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, status)
		} else {
			span.SetStatus(codes.Ok, status)
		}
		span.End()

		latency := time.Since(start).Seconds()
		in.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
		in.durHistogram.Observe(latency, observability.L("use_case", useCase))

		done := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", status),
			observability.F("latency_seconds", latency),
		}
		if err != nil {
			done = append(done, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", done...)
	}()

	return fn(logctx.With(ctx, logger))
}

// Call times a synchronous call to another service on the external_requests metrics.
func (in Instrument) Call(ctx context.Context, peer, endpoint string, timeout time.Duration, fn func(ctx context.Context) error) error {
	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	start := time.Now()
	err := fn(callCtx)
	outcome := "success"
	if err != nil {
		outcome = "error"
	} else if callCtx.Err() != nil {
		outcome = "canceled"
		err = callCtx.Err()
	}
	cancel()

	in.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
	return err
}

// Publish sends one notification. A nil event or publisher is a no-op.
func (in Instrument) Publish(ctx context.Context, publisher domoutbox.Publisher, e domoutbox.Event) error {
	if publisher == nil || e == nil {
		return nil
	}
	err := in.Call(ctx, publishPeer, e.EventName(), publishTimeout, func(ctx context.Context) error {
		return publisher.Publish(ctx, e)
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.EventName(), err)
	}
	trace.SpanFromContext(ctx).AddEvent(e.EventName())
	return nil
}
