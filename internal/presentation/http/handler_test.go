package httppresentation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/apptest"
	appdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/delivery"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/warehouse"
	domdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router http.Handler
	pub    *apptest.Publisher
	svc    Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pub := &apptest.Publisher{}
	catalog := memory.NewCatalog()
	catalog.SetPrice("a", decimal.NewFromInt(30))
	catalog.SetPrice("b", decimal.NewFromInt(20))

	wh := warehouse.NewService(memory.NewInventoryRepository(), memory.NewBookingRepository(), catalog, pub,
		domdelivery.Address{Country: "PL", City: "ADDRESS_2", Street: "Dockside", House: "1"}, nil)
	svc := Services{
		Warehouse: wh,
		Order:     apporder.NewService(memory.NewOrderRepository(), &apptest.IDs{Prefix: "order"}, pub, nil),
		Delivery: appdelivery.NewService(memory.NewDeliveryRepository(), wh, domdelivery.DefaultCostParams(),
			&apptest.IDs{Prefix: "delivery"}, pub, nil),
		Payment: apppayment.NewService(memory.NewPaymentRepository(), catalog, &apptest.IDs{Prefix: "payment"}, pub, nil),
	}
	return &fixture{router: NewHandler(svc, nil, nil).Router(), pub: pub, svc: svc}
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (f *fixture) stock(t *testing.T, productID string, qty int) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/warehouse/product",
		`{"product_id":"`+productID+`","weight":"1","width":"1","height":"1","depth":"1"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	if qty > 0 {
		rec = f.do(t, http.MethodPost, "/api/v1/warehouse/quantity",
			`{"product_id":"`+productID+`","quantity":`+strconv.Itoa(qty)+`}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

const orderBody = `{"cart_id":"cart-1","products":{"a":2},
	"address":{"country":"PL","city":"Gdansk","street":"Elm","house":"7"}}`

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(headerRequestID))
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "", headerRequestID, "req-42")
	assert.Equal(t, "req-42", rec.Header().Get(headerRequestID))
}

func TestAddQuantityReportsState(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "a", 0)

	rec := f.do(t, http.MethodPost, "/api/v1/warehouse/quantity", `{"product_id":"a","quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[itemResponse](t, rec)
	assert.Equal(t, 5, got.Quantity)
	assert.Equal(t, "ENOUGH", string(got.QuantityState))
}

func TestValidationFailures(t *testing.T) {
	f := newFixture(t)
	cases := map[string]struct{ path, body string }{
		"zero weight":     {"/api/v1/warehouse/product", `{"product_id":"a","weight":"0","width":"1","height":"1","depth":"1"}`},
		"zero quantity":   {"/api/v1/warehouse/quantity", `{"product_id":"a","quantity":0}`},
		"empty cart":      {"/api/v1/warehouse/booking", `{"cart_id":"c","products":{}}`},
		"negative line":   {"/api/v1/warehouse/booking", `{"cart_id":"c","products":{"a":-1}}`},
		"unknown field":   {"/api/v1/warehouse/booking", `{"cart_id":"c","products":{"a":1},"x":1}`},
		"malformed":       {"/api/v1/payment/product-cost", `{`},
		"negative charge": {"/api/v1/payment/total-cost", `{"products":{"a":1},"delivery_total":"-1"}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestReserveCartErrors(t *testing.T) {
	f := newFixture(t)
	f.stock(t, "a", 3)

	rec := f.do(t, http.MethodPost, "/api/v1/warehouse/booking", `{"cart_id":"c1","products":{"a":5}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/warehouse/booking", `{"cart_id":"c1","products":{"ghost":1}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/warehouse/booking", `{"cart_id":"c1","products":{"a":2}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	b := decode[bookingResponse](t, rec)
	assert.True(t, b.Weight.Equal(decimal.NewFromInt(2)))

	rec = f.do(t, http.MethodPost, "/api/v1/warehouse/booking", `{"cart_id":"c1","products":{"a":1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrderRequiresUsername(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/v1/order", orderBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.pub.Events())
}

func TestCreateOrderIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first := f.do(t, http.MethodPost, "/api/v1/order", orderBody, headerUsername, "alice", headerIdempotencyKey, "k1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := f.do(t, http.MethodPost, "/api/v1/order", orderBody, headerUsername, "alice", headerIdempotencyKey, "k1")
	require.Equal(t, http.StatusCreated, second.Code)

	a, b := decode[orderResponse](t, first), decode[orderResponse](t, second)
	assert.Equal(t, a.OrderID, b.OrderID)
	assert.Equal(t, "NEW", string(a.Status))
	assert.Equal(t, 1, f.pub.Count("order.created"))

	rec := f.do(t, http.MethodGet, "/api/v1/order/"+a.OrderID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[orderResponse](t, rec).Username)

	rec = f.do(t, http.MethodGet, "/api/v1/order/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/order/"+a.OrderID+"/return", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCostPreviews(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/payment/total-cost", `{"products":{"a":2,"b":2},"delivery_total":"10"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	totals := decode[totalsResponse](t, rec)
	assert.True(t, totals.TotalPayment.Equal(decimal.NewFromInt(120)), totals.TotalPayment.String())
	assert.True(t, totals.FeeTotal.Equal(decimal.NewFromInt(10)))

	rec = f.do(t, http.MethodPost, "/api/v1/payment/product-cost", `{"products":{"a":1,"ghost":1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeliveryAndPaymentSignals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	to := domdelivery.Address{Country: "PL", City: "Gdansk", Street: "Elm", House: "7"}
	d, err := f.svc.Delivery.Plan(ctx, "order-1", to)
	require.NoError(t, err)
	p, err := f.svc.Payment.Create(ctx, "order-1", map[string]int{"a": 1}, decimal.Zero)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/v1/delivery/"+d.ID+"/picked", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/delivery/order/order-1/delivered", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/delivery/order/order-1/delivered", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/delivery/order/order-1/failed", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, f.pub.Count("delivery.delivered"))

	rec = f.do(t, http.MethodGet, "/api/v1/delivery/"+d.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domdelivery.StateDelivered, decode[deliveryResponse](t, rec).State)

	rec = f.do(t, http.MethodPost, "/api/v1/payment/"+p.ID+"/success", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/payment/missing/failed", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/payment/"+p.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SUCCESS", string(decode[paymentResponse](t, rec).Status))
}

func TestWarehouseAddress(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/v1/warehouse/address", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ADDRESS_2", decode[domdelivery.Address](t, rec).City)
}
