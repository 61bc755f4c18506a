package postgres

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/jackc/pgx/v5/pgxpool"
)

const paymentColumns = `payment_id, order_id, product_total, delivery_total, fee_total, total_payment,
	status, notified, created_at, updated_at`

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.ProductTotal, &p.DeliveryTotal, &p.FeeTotal, &p.TotalPayment,
		&p.Status, &p.Notified, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert fails with ErrInvalidStateTransition when the order already has an active payment.
func (r *PaymentRepository) Insert(ctx context.Context, p *domain.Payment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.OrderID, p.ProductTotal, p.DeliveryTotal, p.FeeTotal, p.TotalPayment,
		string(p.Status), string(p.Notified), p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrInvalidStateTransition
	}
	return err
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_id = $1`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return p, nil
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	p, err := scanPayment(r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments WHERE order_id = $1
		ORDER BY (status <> 'FAILED') DESC, created_at DESC LIMIT 1`, orderID))
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return p, nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *domain.Payment) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payments SET status = $2, notified = $3, updated_at = $4 WHERE payment_id = $1`,
		p.ID, string(p.Status), string(p.Notified), p.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(tag, domain.ErrNotFound)
}
