package booking

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id string, weight int64, side int64, fragile bool) *inventory.Item {
	s := decimal.NewFromInt(side)
	return &inventory.Item{
		ProductID: id,
		Weight:    decimal.NewFromInt(weight),
		Dimension: inventory.Dimension{Width: s, Height: s, Depth: s},
		Fragile:   fragile,
	}
}

func TestNewAggregatesSnapshot(t *testing.T) {
	items := map[string]*inventory.Item{
		"a": item("a", 2, 1, false),
		"b": item("b", 3, 2, true),
	}
	b := New("cart-1", map[string]int{"a": 2, "b": 1}, items)

	assert.True(t, b.Snapshot.Weight.Equal(decimal.NewFromInt(7)), b.Snapshot.Weight.String())
	assert.True(t, b.Snapshot.Volume.Equal(decimal.NewFromInt(10)), b.Snapshot.Volume.String())
	assert.True(t, b.Snapshot.Fragile)
	assert.True(t, b.SameProducts(map[string]int{"b": 1, "a": 2}))
	assert.False(t, b.SameProducts(map[string]int{"a": 2}))
}

func TestAttachOrder(t *testing.T) {
	b := New("cart-1", map[string]int{"a": 1}, nil)

	changed, err := b.AttachOrder("order-1")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = b.AttachOrder("order-1")
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = b.AttachOrder("order-2")
	assert.ErrorIs(t, err, ErrOrderMismatch)
}

func TestCloneDoesNotShareProducts(t *testing.T) {
	b := New("cart-1", map[string]int{"a": 1}, nil)
	c := b.Clone()
	c.Products["a"] = 5
	assert.Equal(t, 1, b.Products["a"])
}
