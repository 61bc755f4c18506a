package workerpresentation

import (
	"context"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects a request-scoped logger for background/worker executions.
// Dynamic fields only: trace_id/span_id (if valid), event_id (generated if empty),
// plus caller-provided low-cardinality attributes (e.g. "event", "worker").
func WithEventContext(ctx context.Context, base observability.Logger, attrs map[string]string) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	fields := make([]observability.Field, 0, 3+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// on subscribes h to the event type E. Events of another type under the same name are ignored.
func on[E domoutbox.Event](sub domoutbox.Subscriber, base observability.Logger, worker string, h func(ctx context.Context, e E) error) {
	var zero E
	name := zero.EventName()
	sub.Subscribe(name, func(ctx context.Context, e domoutbox.Event) error {
		evt, ok := e.(E)
		if !ok {
			return nil
		}
		ctx = WithEventContext(ctx, base, map[string]string{
			"event":  name,
			"worker": worker,
		})
		return h(ctx, evt)
	})
}
