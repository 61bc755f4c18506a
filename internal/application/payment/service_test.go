package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/apptest"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(pub *apptest.Publisher) (*Service, *memory.PaymentRepository) {
	catalog := memory.NewCatalog()
	catalog.SetPrice("a", decimal.NewFromInt(30))
	catalog.SetPrice("b", decimal.NewFromInt(20))
	repo := memory.NewPaymentRepository()
	return NewService(repo, catalog, &apptest.IDs{Prefix: "payment"}, pub, nil), repo
}

var products = map[string]int{"a": 2, "b": 2}

func TestCreateComputesTotals(t *testing.T) {
	pub := &apptest.Publisher{}
	svc, _ := newService(pub)

	p, err := svc.Create(context.Background(), "order-1", products, decimal.NewFromInt(10))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, p.Status)
	assert.True(t, p.ProductTotal.Equal(decimal.NewFromInt(100)))
	assert.True(t, p.FeeTotal.Equal(decimal.NewFromInt(10)))
	assert.True(t, p.TotalPayment.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, []string{"payment.created"}, pub.Names())
}

func TestCreateIsIdempotentPerOrder(t *testing.T) {
	pub := &apptest.Publisher{}
	svc, _ := newService(pub)
	ctx := context.Background()

	first, err := svc.Create(ctx, "order-1", products, decimal.NewFromInt(10))
	require.NoError(t, err)
	second, err := svc.Create(ctx, "order-1", products, decimal.NewFromInt(10))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, pub.Count("payment.created"))
}

func TestCreateAnnouncesAfterFailedPublish(t *testing.T) {
	pub := &apptest.Publisher{Err: errors.New("bus full")}
	svc, repo := newService(pub)
	ctx := context.Background()

	_, err := svc.Create(ctx, "order-1", products, decimal.NewFromInt(10))
	require.Error(t, err)
	assert.Empty(t, pub.Events())

	pub.Err = nil
	again, err := svc.Create(ctx, "order-1", products, decimal.NewFromInt(10))
	require.NoError(t, err)
	_, err = svc.Create(ctx, "order-1", products, decimal.NewFromInt(10))
	require.NoError(t, err)

	assert.Equal(t, "payment-1", again.ID)
	require.Equal(t, []string{"payment.created"}, pub.Names())
	created := pub.Events()[0].(domain.CreatedEvent)
	assert.True(t, created.TotalPayment.Equal(decimal.NewFromInt(120)))

	stored, err := repo.Get(ctx, again.ID)
	require.NoError(t, err)
	assert.False(t, stored.Pending())
}

func TestSettleAnnouncesAfterFailedPublish(t *testing.T) {
	pub := &apptest.Publisher{}
	svc, _ := newService(pub)
	ctx := context.Background()
	p, err := svc.Create(ctx, "order-1", products, decimal.Zero)
	require.NoError(t, err)

	pub.Err = errors.New("bus full")
	require.Error(t, svc.Failed(ctx, p.ID))

	pub.Err = nil
	require.NoError(t, svc.Failed(ctx, p.ID))
	require.NoError(t, svc.Failed(ctx, p.ID))
	assert.Equal(t, []string{"payment.created", "payment.failed"}, pub.Names())
}

func TestCreateWithUnknownProductPersistsNothing(t *testing.T) {
	pub := &apptest.Publisher{}
	svc, repo := newService(pub)

	_, err := svc.Create(context.Background(), "order-1", map[string]int{"a": 1, "ghost": 1}, decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrIncompleteOrderData)

	_, err = repo.FindByOrderID(context.Background(), "order-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, pub.Events())
}

func TestSettleNotifiesOnceAndIsTerminal(t *testing.T) {
	pub := &apptest.Publisher{}
	svc, _ := newService(pub)
	ctx := context.Background()
	p, err := svc.Create(ctx, "order-1", products, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, svc.Success(ctx, p.ID))
	require.NoError(t, svc.Success(ctx, p.ID))
	assert.ErrorIs(t, svc.Failed(ctx, p.ID), domain.ErrInvalidStateTransition)

	assert.Equal(t, []string{"payment.created", "payment.completed"}, pub.Names())
	assert.ErrorIs(t, svc.Success(ctx, "missing"), domain.ErrNotFound)
}

func TestFailedPaymentAllowsANewOne(t *testing.T) {
	pub := &apptest.Publisher{}
	svc, _ := newService(pub)
	ctx := context.Background()
	p, err := svc.Create(ctx, "order-1", products, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, svc.Failed(ctx, p.ID))
	assert.Equal(t, 1, pub.Count("payment.failed"))

	next, err := svc.Create(ctx, "order-1", products, decimal.Zero)
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, next.ID)
}

func TestCostPreviews(t *testing.T) {
	svc, _ := newService(&apptest.Publisher{})
	ctx := context.Background()

	product, err := svc.ProductCost(ctx, products)
	require.NoError(t, err)
	assert.True(t, product.Equal(decimal.NewFromInt(100)))

	totals, err := svc.TotalCost(ctx, products, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(120)))

	_, err = svc.ProductCost(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrNoProducts)
}
