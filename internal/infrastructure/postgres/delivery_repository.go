package postgres

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/delivery"
	"github.com/jackc/pgx/v5/pgxpool"
)

const deliveryColumns = `delivery_id, order_id, from_address, to_address, weight, volume, fragile,
	cost, state, notified, created_at, updated_at`

type DeliveryRepository struct {
	pool *pgxpool.Pool
}

func NewDeliveryRepository(pool *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{pool: pool}
}

func scanDelivery(row rowScanner) (*domain.Delivery, error) {
	var d domain.Delivery
	err := row.Scan(&d.ID, &d.OrderID, &d.From, &d.To, &d.Snapshot.Weight, &d.Snapshot.Volume,
		&d.Snapshot.Fragile, &d.Cost, &d.State, &d.Notified, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Insert fails with ErrInvalidStateTransition when the order already has an active delivery.
func (r *DeliveryRepository) Insert(ctx context.Context, d *domain.Delivery) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO deliveries (`+deliveryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.OrderID, d.From, d.To, d.Snapshot.Weight, d.Snapshot.Volume, d.Snapshot.Fragile,
		d.Cost, string(d.State), string(d.Notified), d.CreatedAt, d.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrInvalidStateTransition
	}
	return err
}

func (r *DeliveryRepository) Get(ctx context.Context, id string) (*domain.Delivery, error) {
	d, err := scanDelivery(r.pool.QueryRow(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE delivery_id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return d, nil
}

func (r *DeliveryRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Delivery, error) {
	d, err := scanDelivery(r.pool.QueryRow(ctx, `
		SELECT `+deliveryColumns+` FROM deliveries WHERE order_id = $1
		ORDER BY (state <> 'FAILED') DESC, created_at DESC LIMIT 1`, orderID))
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return d, nil
}

func (r *DeliveryRepository) Update(ctx context.Context, d *domain.Delivery) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE deliveries SET weight = $2, volume = $3, fragile = $4, cost = $5, state = $6, notified = $7,
			updated_at = $8
		WHERE delivery_id = $1`,
		d.ID, d.Snapshot.Weight, d.Snapshot.Volume, d.Snapshot.Fragile, d.Cost, string(d.State),
		string(d.Notified), d.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(tag, domain.ErrNotFound)
}
