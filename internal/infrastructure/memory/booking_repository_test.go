package memory

import (
	"context"
	"testing"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingReleaseSurvivesStaleUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewBookingRepository()

	b := domain.New("cart-1", map[string]int{"p": 1}, nil)
	require.NoError(t, r.Insert(ctx, b))
	assert.ErrorIs(t, r.Insert(ctx, b), domain.ErrAlreadyExists)

	stale, err := r.Get(ctx, "cart-1")
	require.NoError(t, err)

	flipped, err := r.MarkReleased(ctx, "cart-1", true)
	require.NoError(t, err)
	assert.True(t, flipped)

	_, err = stale.AttachOrder("order-1")
	require.NoError(t, err)
	require.NoError(t, r.Update(ctx, stale))

	got, err := r.FindByOrderID(ctx, "order-1")
	require.NoError(t, err)
	assert.True(t, got.Released)

	again, err := r.MarkReleased(ctx, "cart-1", true)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestBookingOrderBindsOneCart(t *testing.T) {
	ctx := context.Background()
	r := NewBookingRepository()

	first := domain.New("cart-1", map[string]int{"p": 1}, nil)
	first.OrderID = "order-1"
	require.NoError(t, r.Insert(ctx, first))

	second := domain.New("cart-2", map[string]int{"p": 1}, nil)
	require.NoError(t, r.Insert(ctx, second))
	second.OrderID = "order-1"
	assert.ErrorIs(t, r.Update(ctx, second), domain.ErrOrderMismatch)

	_, err := r.MarkReleased(ctx, "missing", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
