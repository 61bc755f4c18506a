package httppresentation

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	appdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/delivery"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/warehouse"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fault"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Services are the application services exposed over HTTP.
type Services struct {
	Warehouse *warehouse.Service
	Order     *apporder.Service
	Delivery  *appdelivery.Service
	Payment   *apppayment.Service
}

type Handler struct {
	svc      Services
	validate *validatorv10.Validate
	log      observability.Logger
	tel      observability.Observability

	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerUsername       = "X-Username"
	headerIdempotencyKey = "Idempotency-Key"
)

func NewHandler(svc Services, logger observability.Logger, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = tel.Logger()
	}
	return &Handler{
		svc:          svc,
		validate:     newValidator(),
		log:          baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:          tel,
		reqCounter:   tel.Metrics().Counter(observability.MHTTPRequests),
		durHistogram: tel.Metrics().Histogram(observability.MHTTPRequestDuration),
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	h.muxHandle(mux, "POST /api/v1/warehouse/product", h.handleAddProduct)
	h.muxHandle(mux, "POST /api/v1/warehouse/quantity", h.handleAddQuantity)
	h.muxHandle(mux, "POST /api/v1/warehouse/booking", h.handleReserveCart)
	h.muxHandle(mux, "POST /api/v1/warehouse/assembly", h.handleAssemble)
	h.muxHandle(mux, "POST /api/v1/warehouse/return", h.handleAcceptReturn)
	h.muxHandle(mux, "GET /api/v1/warehouse/address", h.handleWarehouseAddress)

	h.muxHandle(mux, "POST /api/v1/order", h.handleCreateOrder)
	h.muxHandle(mux, "GET /api/v1/order/{orderID}", h.handleGetOrder)
	h.muxHandle(mux, "POST /api/v1/order/{orderID}/return", h.handleReturnOrder)

	h.muxHandle(mux, "GET /api/v1/delivery/{deliveryID}", h.handleGetDelivery)
	h.muxHandle(mux, "POST /api/v1/delivery/{deliveryID}/picked", h.handleDeliveryPicked)
	h.muxHandle(mux, "POST /api/v1/delivery/order/{orderID}/delivered", h.handleDelivered)
	h.muxHandle(mux, "POST /api/v1/delivery/order/{orderID}/failed", h.handleDeliveryFailed)

	h.muxHandle(mux, "GET /api/v1/payment/{paymentID}", h.handleGetPayment)
	h.muxHandle(mux, "POST /api/v1/payment/{paymentID}/success", h.handlePaymentSuccess)
	h.muxHandle(mux, "POST /api/v1/payment/{paymentID}/failed", h.handlePaymentFailed)
	h.muxHandle(mux, "POST /api/v1/payment/product-cost", h.handleProductCost)
	h.muxHandle(mux, "POST /api/v1/payment/total-cost", h.handleTotalCost)

	h.muxHandle(mux, "GET /health", h.handleHealth)

	return mux
}

// muxHandle registers pattern ("METHOD /path/{param}") and keeps it as the low-cardinality
// route label. Chain: Trace → request logger → HTTP metrics → access log → handler.
func (h *Handler) muxHandle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
		)(
			h.withHTTPMetrics(
				h.withAccessLog(handler),
			),
		),
	)
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped.ServeHTTP(w, r.WithContext(contextWithRoute(r.Context(), pattern)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("fulfillment.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctxWithSpan))
		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using the vectors resolved in NewHandler.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		route := routeFromContext(r.Context())
		status := strconv.Itoa(lrw.status)
		h.reqCounter.Add(1,
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", status),
		)
		h.durHistogram.Observe(time.Since(start).Seconds(),
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", status),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeDomainError maps the error's kind to a status code.
func writeDomainError(w http.ResponseWriter, err error) {
	switch fault.Kind(err) {
	case fault.ErrNotFound:
		writeError(w, http.StatusNotFound, err)
	case fault.ErrConflict, fault.ErrIncompleteOrderData:
		writeError(w, http.StatusBadRequest, err)
	case fault.ErrUnauthorized:
		writeError(w, http.StatusUnauthorized, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
