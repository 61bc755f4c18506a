// Package httptransport holds the HTTP clients for the services this one calls.
package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	pathProductsByIDs = "/api/v1/shopping-store/products/by-ids"
	pathQuantityState = "/api/v1/shopping-store/quantity-state"
)

var ErrCatalogUnavailable = errors.New("catalog: unavailable")

// CatalogClient talks to the shopping-store catalog over REST.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type productDTO struct {
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
}

type quantityStateDTO struct {
	ProductID     string                  `json:"productId"`
	QuantityState inventory.QuantityState `json:"quantityState"`
}

// GetProductsByIDs prices the given products. Products the catalog does not know are absent.
func (c *CatalogClient) GetProductsByIDs(ctx context.Context, ids []string) (map[string]payment.Product, error) {
	var products []productDTO
	if err := c.post(ctx, pathProductsByIDs, ids, &products); err != nil {
		return nil, err
	}
	out := make(map[string]payment.Product, len(products))
	for _, p := range products {
		out[p.ProductID] = payment.Product{ID: p.ProductID, Price: p.Price}
	}
	return out, nil
}

func (c *CatalogClient) SetProductQuantityState(ctx context.Context, productID string, state inventory.QuantityState) error {
	return c.post(ctx, pathQuantityState, quantityStateDTO{ProductID: productID, QuantityState: state}, nil)
}

func (c *CatalogClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("catalog: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %d %s", ErrCatalogUnavailable, req.Method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("catalog: decode response: %w", err)
	}
	return nil
}
