package order

import (
	"context"
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/apptest"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var addr = delivery.Address{Country: "PL", City: "Gdansk", Street: "Elm", House: "7"}

func newService() (*Service, *apptest.Publisher) {
	pub := &apptest.Publisher{}
	return NewService(memory.NewOrderRepository(), &apptest.IDs{Prefix: "order"}, pub, nil), pub
}

func create(t *testing.T, svc *Service, key string) *domain.Order {
	t.Helper()
	o, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		IdempotencyKey: key,
		Username:       "alice",
		CartID:         "cart-1",
		Products:       map[string]int{"a": 2},
		Address:        addr,
	})
	require.NoError(t, err)
	return o
}

func TestCreateOrderPublishesOnceForSameKey(t *testing.T) {
	svc, pub := newService()

	first := create(t, svc, "key-1")
	second := create(t, svc, "key-1")

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.StatusNew, first.Status)
	assert.Equal(t, []string{"order.created"}, pub.Names())

	created := pub.Events()[0].(domain.CreatedEvent)
	assert.Equal(t, "cart-1", created.CartID)
	assert.Equal(t, map[string]int{"a": 2}, created.Products)
}

func TestCreateOrderAnnouncesAfterFailedPublish(t *testing.T) {
	svc, pub := newService()
	pub.Err = errors.New("bus full")
	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		IdempotencyKey: "key-1",
		Username:       "alice",
		CartID:         "cart-1",
		Products:       map[string]int{"a": 2},
		Address:        addr,
	})
	require.Error(t, err)

	pub.Err = nil
	first := create(t, svc, "key-1")
	second := create(t, svc, "key-1")

	assert.Equal(t, "order-1", first.ID)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []string{"order.created"}, pub.Names())
}

func TestReactionAnnouncesAfterFailedPublish(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()
	o := create(t, svc, "")

	pub.Err = errors.New("bus full")
	require.Error(t, svc.OnAssembled(ctx, o.ID, booking.Snapshot{Weight: decimal.NewFromInt(3)}))

	pub.Err = nil
	require.NoError(t, svc.OnAssembled(ctx, o.ID, booking.Snapshot{Weight: decimal.NewFromInt(3)}))
	require.NoError(t, svc.OnAssembled(ctx, o.ID, booking.Snapshot{Weight: decimal.NewFromInt(3)}))

	assert.Equal(t, []string{"order.created", "order.assembled"}, pub.Names())
	assembled := pub.Events()[1].(domain.AssembledEvent)
	assert.True(t, assembled.Snapshot.Weight.Equal(decimal.NewFromInt(3)))

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssembled, got.Status)
	assert.False(t, got.Pending())
}

func TestPaymentDetailsDoNotRepeatPaymentRequest(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()
	o := create(t, svc, "")
	require.NoError(t, svc.OnAssembled(ctx, o.ID, booking.Snapshot{}))
	require.NoError(t, svc.OnDeliveryPlanned(ctx, o.ID, "delivery-1", decimal.NewFromInt(10)))

	require.NoError(t, svc.OnPaymentCreated(ctx, o.ID, "payment-1", decimal.NewFromInt(100), decimal.NewFromInt(120)))

	assert.Equal(t, 1, pub.Count("order.payment_requested"))
	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "payment-1", got.PaymentID)
}

func TestCreateOrderRequiresUser(t *testing.T) {
	svc, _ := newService()
	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{CartID: "cart-1", Products: map[string]int{"a": 1}, Address: addr})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestHappyPathEvents(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()
	o := create(t, svc, "")
	snap := booking.Snapshot{Weight: decimal.NewFromInt(1), Volume: decimal.NewFromInt(1)}

	require.NoError(t, svc.OnAssembled(ctx, o.ID, snap))
	require.NoError(t, svc.OnAssembled(ctx, o.ID, snap))
	require.NoError(t, svc.OnDeliveryPlanned(ctx, o.ID, "delivery-1", decimal.NewFromInt(10)))
	require.NoError(t, svc.OnPaymentCreated(ctx, o.ID, "payment-1", decimal.NewFromInt(100), decimal.NewFromInt(120)))
	require.NoError(t, svc.OnPaymentCompleted(ctx, o.ID))
	require.NoError(t, svc.OnDeliveryPicked(ctx, o.ID))
	require.NoError(t, svc.OnDelivered(ctx, o.ID))
	require.NoError(t, svc.OnDelivered(ctx, o.ID))

	assert.Equal(t, []string{"order.created", "order.assembled", "order.payment_requested"}, pub.Names())

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got.Status)
	assert.Equal(t, "delivery-1", got.DeliveryID)
	assert.Equal(t, "payment-1", got.PaymentID)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(120)))

	requested := pub.Events()[2].(domain.PaymentRequestedEvent)
	assert.True(t, requested.DeliveryTotal.Equal(decimal.NewFromInt(10)))
}

func TestPaymentFailureRequestsCompensationOnce(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()
	o := create(t, svc, "")

	require.NoError(t, svc.OnPaymentFailed(ctx, o.ID))
	require.NoError(t, svc.OnPaymentFailed(ctx, o.ID))

	assert.Equal(t, 1, pub.Count("order.failed"))
	failed := pub.Events()[1].(domain.FailedEvent)
	assert.Equal(t, "cart-1", failed.CartID)
	assert.Equal(t, domain.StatusPaymentFailed, failed.Status)

	assert.ErrorIs(t, svc.OnDelivered(ctx, o.ID), domain.ErrInvalidStateTransition)
}

func TestDeliveryFailureRequestsCompensation(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()
	o := create(t, svc, "")
	require.NoError(t, svc.OnDeliveryPicked(ctx, o.ID))

	require.NoError(t, svc.OnDeliveryFailed(ctx, o.ID))
	assert.Equal(t, 1, pub.Count("order.failed"))

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "delivery failed", got.FailureReason)
}

func TestAssemblyFailureHasNothingToCompensate(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()
	o := create(t, svc, "")

	require.NoError(t, svc.OnAssemblyFailed(ctx, o.ID, "booking: not found"))
	assert.Equal(t, 0, pub.Count("order.failed"))

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssemblyFailed, got.Status)
}

func TestReturnOnlyAfterDelivery(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()
	o := create(t, svc, "")

	_, err := svc.Return(ctx, o.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	require.NoError(t, svc.OnDelivered(ctx, o.ID))
	returned, err := svc.Return(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProductReturned, returned.Status)
	assert.Equal(t, 1, pub.Count("order.returned"))

	_, err = svc.Return(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStatusTransitionsAreCounted(t *testing.T) {
	tel := &apptest.Telemetry{}
	svc := NewService(memory.NewOrderRepository(), &apptest.IDs{Prefix: "order"}, &apptest.Publisher{}, tel)
	ctx := context.Background()
	o := create(t, svc, "")

	require.NoError(t, svc.OnPaymentFailed(ctx, o.ID))
	require.NoError(t, svc.OnPaymentFailed(ctx, o.ID))

	assert.Equal(t, 1.0, tel.Total(observability.MOrderTransitions, string(domain.StatusNew)))
	assert.Equal(t, 1.0, tel.Total(observability.MOrderTransitions, string(domain.StatusPaymentFailed)))
}
