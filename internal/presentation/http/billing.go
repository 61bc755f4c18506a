package httppresentation

import (
	"net/http"

	domdelivery "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	dompayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/shopspring/decimal"
)

type deliveryResponse struct {
	DeliveryID string              `json:"delivery_id"`
	OrderID    string              `json:"order_id"`
	From       domdelivery.Address `json:"from_address"`
	To         domdelivery.Address `json:"to_address"`
	State      domdelivery.State   `json:"delivery_state"`
	Cost       decimal.Decimal     `json:"delivery_cost"`
}

type paymentResponse struct {
	PaymentID     string            `json:"payment_id"`
	OrderID       string            `json:"order_id"`
	ProductTotal  decimal.Decimal   `json:"product_total"`
	DeliveryTotal decimal.Decimal   `json:"delivery_total"`
	FeeTotal      decimal.Decimal   `json:"fee_total"`
	TotalPayment  decimal.Decimal   `json:"total_payment"`
	Status        dompayment.Status `json:"status"`
}

type totalCostRequest struct {
	Products      map[string]int  `json:"products" validate:"required,min=1,dive,keys,required,endkeys,gt=0"`
	DeliveryTotal decimal.Decimal `json:"delivery_total" validate:"gte=0"`
}

type totalsResponse struct {
	ProductTotal  decimal.Decimal `json:"product_total"`
	FeeTotal      decimal.Decimal `json:"fee_total"`
	DeliveryTotal decimal.Decimal `json:"delivery_total"`
	TotalPayment  decimal.Decimal `json:"total_payment"`
}

func (h *Handler) handleGetDelivery(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Delivery.Get(r.Context(), r.PathValue("deliveryID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deliveryResponse{
		DeliveryID: d.ID,
		OrderID:    d.OrderID,
		From:       d.From,
		To:         d.To,
		State:      d.State,
		Cost:       d.Cost,
	})
}

func (h *Handler) handleDeliveryPicked(w http.ResponseWriter, r *http.Request) {
	noContent(w, h.svc.Delivery.Picked(r.Context(), r.PathValue("deliveryID")))
}

func (h *Handler) handleDelivered(w http.ResponseWriter, r *http.Request) {
	noContent(w, h.svc.Delivery.Delivered(r.Context(), r.PathValue("orderID")))
}

func (h *Handler) handleDeliveryFailed(w http.ResponseWriter, r *http.Request) {
	noContent(w, h.svc.Delivery.Failed(r.Context(), r.PathValue("orderID")))
}

func (h *Handler) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Payment.Get(r.Context(), r.PathValue("paymentID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		ProductTotal:  p.ProductTotal,
		DeliveryTotal: p.DeliveryTotal,
		FeeTotal:      p.FeeTotal,
		TotalPayment:  p.TotalPayment,
		Status:        p.Status,
	})
}

func (h *Handler) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	noContent(w, h.svc.Payment.Success(r.Context(), r.PathValue("paymentID")))
}

func (h *Handler) handlePaymentFailed(w http.ResponseWriter, r *http.Request) {
	noContent(w, h.svc.Payment.Failed(r.Context(), r.PathValue("paymentID")))
}

func (h *Handler) handleProductCost(w http.ResponseWriter, r *http.Request) {
	var req productsRequest
	if !h.bindAndValidate(w, r, &req) {
		return
	}
	total, err := h.svc.Payment.ProductCost(r.Context(), req.Products)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"product_total": total})
}

func (h *Handler) handleTotalCost(w http.ResponseWriter, r *http.Request) {
	var req totalCostRequest
	if !h.bindAndValidate(w, r, &req) {
		return
	}
	totals, err := h.svc.Payment.TotalCost(r.Context(), req.Products, req.DeliveryTotal)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totalsResponse{
		ProductTotal:  totals.Product,
		FeeTotal:      totals.VAT,
		DeliveryTotal: totals.Delivery,
		TotalPayment:  totals.Total,
	})
}

func noContent(w http.ResponseWriter, err error) {
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
