package delivery

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	warehouseAddr = Address{Country: "PL", City: "Gdansk", Street: "Dockside", House: "1"}
	customerAddr  = Address{Country: "PL", City: "Gdansk", Street: "Elm", House: "7"}
)

func d(n string) decimal.Decimal { return decimal.RequireFromString(n) }

func TestCostWorkedExample(t *testing.T) {
	p := DefaultCostParams()
	snap := booking.Snapshot{Weight: d("10"), Volume: d("2")}

	got := p.Cost(warehouseAddr, customerAddr, snap)

	assert.True(t, got.WarehouseFactor.IsZero())
	assert.True(t, got.Base.Equal(d("5")), got.Base.String())
	assert.True(t, got.Step.Equal(d("8.4")), got.Step.String())
	assert.True(t, got.AddressAddition.Equal(d("1.68")), got.AddressAddition.String())
	assert.True(t, got.Total.Equal(d("10.08")), got.Total.String())
}

func TestCostWarehouseFactorAndFragile(t *testing.T) {
	p := DefaultCostParams()
	from := Address{Country: "PL", City: "ADDRESS_2", Street: "Dockside", House: "1"}
	snap := booking.Snapshot{Weight: d("0"), Volume: d("0"), Fragile: true}

	got := p.Cost(from, Address{Country: "PL", City: "Gdansk", Street: "Dockside", House: "9"}, snap)

	// base = 5*2+5 = 15, fragile = 3, same street so no surcharge
	assert.True(t, got.WarehouseFactor.Equal(d("2")))
	assert.True(t, got.Base.Equal(d("15")))
	assert.True(t, got.FragileAddition.Equal(d("3")))
	assert.True(t, got.AddressAddition.IsZero())
	assert.True(t, got.Total.Equal(d("18")), got.Total.String())
}

func TestWarehouseFactorSumsEveryMatchingKey(t *testing.T) {
	p := DefaultCostParams()
	assert.True(t, p.WarehouseFactor("ADDRESS_1 near ADDRESS_2").Equal(d("3")))
	assert.True(t, p.WarehouseFactor("nowhere").IsZero())
}

func TestTransitions(t *testing.T) {
	del, err := New("d-1", "o-1", warehouseAddr, customerAddr)
	require.NoError(t, err)
	assert.Equal(t, StateCreated, del.State)

	_, err = del.Transition(StateDelivered)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	changed, err := del.Transition(StateInDelivery)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = del.Transition(StateDelivered)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = del.Transition(StateDelivered)
	require.NoError(t, err)
	assert.False(t, changed)

	for _, s := range []State{StateCreated, StateInDelivery, StateFailed} {
		_, err = del.Transition(s)
		assert.ErrorIs(t, err, ErrInvalidStateTransition, "from DELIVERED to %s", s)
	}
	assert.True(t, del.State.Terminal())
}

func TestFailedIsTerminal(t *testing.T) {
	del, err := New("d-1", "o-1", warehouseAddr, customerAddr)
	require.NoError(t, err)

	changed, err := del.Transition(StateFailed)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, del.Active())

	_, err = del.Transition(StateInDelivery)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestNewRejectsIncompleteAddress(t *testing.T) {
	_, err := New("d-1", "o-1", warehouseAddr, Address{City: "Gdansk"})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}
