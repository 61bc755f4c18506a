package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/warehouse"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

type addProductRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Weight    decimal.Decimal `json:"weight" validate:"gt=0"`
	Width     decimal.Decimal `json:"width" validate:"gt=0"`
	Height    decimal.Decimal `json:"height" validate:"gt=0"`
	Depth     decimal.Decimal `json:"depth" validate:"gt=0"`
	Fragile   bool            `json:"fragile"`
}

type addQuantityRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type productsRequest struct {
	Products map[string]int `json:"products" validate:"required,min=1,dive,keys,required,endkeys,gt=0"`
}

type reserveCartRequest struct {
	CartID   string         `json:"cart_id" validate:"required"`
	Products map[string]int `json:"products" validate:"required,min=1,dive,keys,required,endkeys,gt=0"`
}

type assembleRequest struct {
	CartID  string `json:"cart_id" validate:"required"`
	OrderID string `json:"order_id" validate:"required"`
}

type itemResponse struct {
	ProductID     string                  `json:"product_id"`
	Quantity      int                     `json:"quantity"`
	QuantityState inventory.QuantityState `json:"quantity_state"`
}

type bookingResponse struct {
	CartID     string          `json:"cart_id"`
	OrderID    string          `json:"order_id,omitempty"`
	DeliveryID string          `json:"delivery_id,omitempty"`
	Products   map[string]int  `json:"products"`
	Weight     decimal.Decimal `json:"delivery_weight"`
	Volume     decimal.Decimal `json:"delivery_volume"`
	Fragile    bool            `json:"fragile"`
}

func toBookingResponse(b *booking.Booking) bookingResponse {
	return bookingResponse{
		CartID:     b.CartID,
		OrderID:    b.OrderID,
		DeliveryID: b.DeliveryID,
		Products:   b.Products,
		Weight:     b.Snapshot.Weight,
		Volume:     b.Snapshot.Volume,
		Fragile:    b.Snapshot.Fragile,
	}
}

func (h *Handler) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var req addProductRequest
	if !h.bindAndValidate(w, r, &req) {
		return
	}
	err := h.svc.Warehouse.AddProduct(r.Context(), warehouse.NewProductInput{
		ProductID: req.ProductID,
		Weight:    req.Weight,
		Width:     req.Width,
		Height:    req.Height,
		Depth:     req.Depth,
		Fragile:   req.Fragile,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse{
		ProductID:     req.ProductID,
		QuantityState: inventory.DeriveQuantityState(0),
	})
}

func (h *Handler) handleAddQuantity(w http.ResponseWriter, r *http.Request) {
	var req addQuantityRequest
	if !h.bindAndValidate(w, r, &req) {
		return
	}
	item, err := h.svc.Warehouse.AddQuantity(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse{
		ProductID:     item.ProductID,
		Quantity:      item.Quantity,
		QuantityState: item.State(),
	})
}

func (h *Handler) handleReserveCart(w http.ResponseWriter, r *http.Request) {
	var req reserveCartRequest
	if !h.bindAndValidate(w, r, &req) {
		return
	}
	b, err := h.svc.Warehouse.ReserveCart(r.Context(), req.CartID, req.Products)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *Handler) handleAssemble(w http.ResponseWriter, r *http.Request) {
	var req assembleRequest
	if !h.bindAndValidate(w, r, &req) {
		return
	}
	b, err := h.svc.Warehouse.Assemble(r.Context(), req.CartID, req.OrderID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingResponse(b))
}

func (h *Handler) handleAcceptReturn(w http.ResponseWriter, r *http.Request) {
	var req productsRequest
	if !h.bindAndValidate(w, r, &req) {
		return
	}
	if err := h.svc.Warehouse.AcceptReturn(r.Context(), req.Products); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleWarehouseAddress(w http.ResponseWriter, r *http.Request) {
	addr, err := h.svc.Warehouse.WarehouseAddress(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}
