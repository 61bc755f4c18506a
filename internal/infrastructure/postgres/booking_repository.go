package postgres

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/booking"
	"github.com/jackc/pgx/v5/pgxpool"
)

const bookingColumns = `cart_id, COALESCE(order_id, ''), products, weight, volume, fragile,
	COALESCE(delivery_id, ''), released, assembled, created_at, updated_at`

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.CartID, &b.OrderID, &b.Products, &b.Snapshot.Weight, &b.Snapshot.Volume,
		&b.Snapshot.Fragile, &b.DeliveryID, &b.Released, &b.Assembled, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *BookingRepository) Insert(ctx context.Context, b *domain.Booking) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bookings (cart_id, order_id, products, weight, volume, fragile, delivery_id, released,
			assembled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.CartID, nullable(b.OrderID), b.Products, b.Snapshot.Weight, b.Snapshot.Volume, b.Snapshot.Fragile,
		nullable(b.DeliveryID), b.Released, b.Assembled, b.CreatedAt, b.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *BookingRepository) Get(ctx context.Context, cartID string) (*domain.Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE cart_id = $1`, cartID))
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return b, nil
}

func (r *BookingRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	b, err := scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE order_id = $1`, orderID))
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return b, nil
}

// Update stores the order and delivery bindings and the assembly marker. Released is only
// changed by MarkReleased.
func (r *BookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET order_id = $2, delivery_id = $3, assembled = $4, updated_at = $5
		WHERE cart_id = $1`,
		b.CartID, nullable(b.OrderID), nullable(b.DeliveryID), b.Assembled, b.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrOrderMismatch
	}
	if err != nil {
		return err
	}
	return expectOne(tag, domain.ErrNotFound)
}

func (r *BookingRepository) MarkReleased(ctx context.Context, cartID string, released bool) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET released = $2, updated_at = now()
		WHERE cart_id = $1 AND released <> $2`, cartID, released)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := r.Get(ctx, cartID); err != nil {
		return false, err
	}
	return false, nil
}
