package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ObservabilityMiddleware injects a request-scoped logger and generates or echoes X-Request-ID.
// It runs inside withTrace, so the span is already started. Ids captured by the route pattern
// ({orderID}, {deliveryID}, {paymentID}) are added so a request correlates with the saga logs.
func ObservabilityMiddleware(
	base observability.Logger,
	requestID func(*http.Request) string,
) func(http.Handler) http.Handler {
	if base == nil {
		base = observability.NopLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			rid := ""
			if requestID != nil {
				rid = requestID(r)
			}
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(headerRequestID, rid)

			fields := []observability.Field{observability.F("request_id", rid)}
			if user := r.Header.Get(headerUsername); user != "" {
				fields = append(fields, observability.F("username", user))
			}
			for _, p := range correlationParams {
				if v := r.PathValue(p.param); v != "" {
					fields = append(fields, observability.F(p.field, v))
				}
			}
			if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
				fields = append(fields,
					observability.F("trace_id", sc.TraceID().String()),
					observability.F("span_id", sc.SpanID().String()),
				)
			}
			next.ServeHTTP(w, r.WithContext(logctx.With(ctx, base.With(fields...))))
		})
	}
}

var correlationParams = []struct{ param, field string }{
	{"orderID", "order_id"},
	{"deliveryID", "delivery_id"},
	{"paymentID", "payment_id"},
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
