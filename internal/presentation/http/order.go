package httppresentation

import (
	"net/http"
	"time"

	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/shopspring/decimal"
)

type addressRequest struct {
	Country string `json:"country" validate:"required"`
	City    string `json:"city" validate:"required"`
	Street  string `json:"street" validate:"required"`
	House   string `json:"house" validate:"required"`
	Flat    string `json:"flat"`
}

func (a addressRequest) toDomain() delivery.Address {
	return delivery.Address{Country: a.Country, City: a.City, Street: a.Street, House: a.House, Flat: a.Flat}
}

type createOrderRequest struct {
	IdempotencyKey string         `json:"idempotency_key"`
	CartID         string         `json:"cart_id" validate:"required"`
	Products       map[string]int `json:"products" validate:"required,min=1,dive,keys,required,endkeys,gt=0"`
	Address        addressRequest `json:"address"`
}

type orderResponse struct {
	OrderID       string           `json:"order_id"`
	CartID        string           `json:"cart_id"`
	Username      string           `json:"username"`
	Products      map[string]int   `json:"products"`
	Address       delivery.Address `json:"address"`
	Status        domorder.Status  `json:"status"`
	FailureReason string           `json:"failure_reason,omitempty"`
	DeliveryID    string           `json:"delivery_id,omitempty"`
	PaymentID     string           `json:"payment_id,omitempty"`
	DeliveryPrice decimal.Decimal  `json:"delivery_price"`
	ProductPrice  decimal.Decimal  `json:"product_price"`
	TotalPrice    decimal.Decimal  `json:"total_price"`
	Weight        decimal.Decimal  `json:"delivery_weight"`
	Volume        decimal.Decimal  `json:"delivery_volume"`
	Fragile       bool             `json:"fragile"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func toOrderResponse(o *domorder.Order) orderResponse {
	return orderResponse{
		OrderID:       o.ID,
		CartID:        o.CartID,
		Username:      o.Username,
		Products:      o.Products,
		Address:       o.Address,
		Status:        o.Status,
		FailureReason: o.FailureReason,
		DeliveryID:    o.DeliveryID,
		PaymentID:     o.PaymentID,
		DeliveryPrice: o.DeliveryPrice,
		ProductPrice:  o.ProductPrice,
		TotalPrice:    o.TotalPrice,
		Weight:        o.Snapshot.Weight,
		Volume:        o.Snapshot.Volume,
		Fragile:       o.Snapshot.Fragile,
		UpdatedAt:     o.UpdatedAt,
	}
}

// handleCreateOrder needs X-Username. The idempotency key comes from the Idempotency-Key
// header, falling back to the body.
func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	username := r.Header.Get(headerUsername)
	if username == "" {
		writeDomainError(w, domorder.ErrUnauthorized)
		return
	}
	var req createOrderRequest
	if !h.bindAndValidate(w, r, &req) {
		return
	}
	key := r.Header.Get(headerIdempotencyKey)
	if key == "" {
		key = req.IdempotencyKey
	}

	o, err := h.svc.Order.CreateOrder(r.Context(), apporder.CreateOrderInput{
		IdempotencyKey: key,
		Username:       username,
		CartID:         req.CartID,
		Products:       req.Products,
		Address:        req.Address.toDomain(),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Order.Get(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleReturnOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Order.Return(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}
