package postgres

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `order_id, idempotency_key, username, cart_id, products, address, delivery_id,
	payment_id, weight, volume, fragile, delivery_price, product_price, total_price, status,
	notified, failure_reason, created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.IdempotencyKey, &o.Username, &o.CartID, &o.Products, &o.Address,
		&o.DeliveryID, &o.PaymentID, &o.Snapshot.Weight, &o.Snapshot.Volume, &o.Snapshot.Fragile,
		&o.DeliveryPrice, &o.ProductPrice, &o.TotalPrice, &o.Status, &o.Notified, &o.FailureReason,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Insert fails with ErrConflict on a duplicate id or a reused idempotency key.
func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		o.ID, o.IdempotencyKey, o.Username, o.CartID, o.Products, o.Address, o.DeliveryID,
		o.PaymentID, o.Snapshot.Weight, o.Snapshot.Volume, o.Snapshot.Fragile, o.DeliveryPrice,
		o.ProductPrice, o.TotalPrice, string(o.Status), string(o.Notified), o.FailureReason, o.CreatedAt,
		o.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return o, nil
}

func (r *OrderRepository) FindByIdempotency(ctx context.Context, username, key string) (*domain.Order, error) {
	if key == "" {
		return nil, domain.ErrNotFound
	}
	o, err := scanOrder(r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders WHERE username = $1 AND idempotency_key = $2`, username, key))
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return o, nil
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders SET delivery_id = $2, payment_id = $3, weight = $4, volume = $5, fragile = $6,
			delivery_price = $7, product_price = $8, total_price = $9, status = $10,
			notified = $11, failure_reason = $12, updated_at = $13
		WHERE order_id = $1`,
		o.ID, o.DeliveryID, o.PaymentID, o.Snapshot.Weight, o.Snapshot.Volume, o.Snapshot.Fragile,
		o.DeliveryPrice, o.ProductPrice, o.TotalPrice, string(o.Status), string(o.Notified),
		o.FailureReason, o.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(tag, domain.ErrNotFound)
}
