package inventory

import (
	"sort"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/fault"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = fault.New(fault.ErrNotFound, "inventory: product not found")
	ErrAlreadyExists     = fault.New(fault.ErrConflict, "inventory: product already exists")
	ErrInvalidQuantity   = fault.New(fault.ErrConflict, "inventory: quantity must be greater than zero")
	ErrInsufficientStock = fault.New(fault.ErrConflict, "inventory: insufficient stock")
	ErrInvalidProduct    = fault.New(fault.ErrConflict, "inventory: invalid product attributes")
)

type Dimension struct {
	Width  decimal.Decimal
	Height decimal.Decimal
	Depth  decimal.Decimal
}

// Volume of one unit.
func (d Dimension) Volume() decimal.Decimal {
	return d.Width.Mul(d.Height).Mul(d.Depth)
}

// Item is the warehouse-side record of a product: available quantity plus the static
// physical attributes used for delivery costing.
type Item struct {
	ProductID string
	Quantity  int
	Weight    decimal.Decimal
	Dimension Dimension
	Fragile   bool
	UpdatedAt time.Time
}

func NewItem(productID string, weight decimal.Decimal, dim Dimension, fragile bool) (*Item, error) {
	if productID == "" || weight.IsNegative() ||
		!dim.Width.IsPositive() || !dim.Height.IsPositive() || !dim.Depth.IsPositive() {
		return nil, ErrInvalidProduct
	}
	return &Item{
		ProductID: productID,
		Weight:    weight,
		Dimension: dim,
		Fragile:   fragile,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (i *Item) Deduct(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > i.Quantity {
		return ErrInsufficientStock
	}
	i.Quantity -= quantity
	i.touch()
	return nil
}

func (i *Item) Restock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	i.Quantity += quantity
	i.touch()
	return nil
}

func (i *Item) State() QuantityState {
	return DeriveQuantityState(i.Quantity)
}

func (i *Item) touch() {
	i.UpdatedAt = time.Now().UTC()
}

// Line is one product/quantity pair of a batch reservation or release.
type Line struct {
	ProductID string
	Quantity  int
}

// LinesFrom turns a product->quantity mapping into lines ordered by product id, so every
// backend locks rows in the same order.
func LinesFrom(products map[string]int) []Line {
	lines := make([]Line, 0, len(products))
	for id, qty := range products {
		lines = append(lines, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(lines, func(a, b int) bool { return lines[a].ProductID < lines[b].ProductID })
	return lines
}

func ValidateLines(lines []Line) error {
	for _, l := range lines {
		if l.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	return nil
}
