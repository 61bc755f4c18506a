package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const itemColumns = `product_id, quantity, weight, width, height, depth, fragile, updated_at`

type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var it domain.Item
	err := row.Scan(&it.ProductID, &it.Quantity, &it.Weight,
		&it.Dimension.Width, &it.Dimension.Height, &it.Dimension.Depth, &it.Fragile, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *InventoryRepository) Insert(ctx context.Context, item *domain.Item) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO warehouse_products (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ProductID, item.Quantity, item.Weight,
		item.Dimension.Width, item.Dimension.Height, item.Dimension.Depth, item.Fragile, item.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *InventoryRepository) Get(ctx context.Context, productID string) (*domain.Item, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM warehouse_products WHERE product_id = $1`, productID)
	it, err := scanItem(row)
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return it, nil
}

func (r *InventoryRepository) GetMany(ctx context.Context, productIDs []string) (map[string]*domain.Item, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM warehouse_products WHERE product_id = ANY($1)`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*domain.Item, len(productIDs))
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out[it.ProductID] = it
	}
	return out, rows.Err()
}

// ReserveBatch deducts every line in one transaction. Rows are locked in product id order so
// concurrent batches cannot deadlock; the first line that cannot be covered rolls back all.
func (r *InventoryRepository) ReserveBatch(ctx context.Context, lines []domain.Line) ([]*domain.Item, error) {
	return r.applyBatch(ctx, lines, `
		UPDATE warehouse_products SET quantity = quantity - $2, updated_at = now()
		WHERE product_id = $1 AND quantity >= $2
		RETURNING `+itemColumns, domain.ErrInsufficientStock)
}

// ReleaseBatch adds every line back in one transaction.
func (r *InventoryRepository) ReleaseBatch(ctx context.Context, lines []domain.Line) ([]*domain.Item, error) {
	return r.applyBatch(ctx, lines, `
		UPDATE warehouse_products SET quantity = quantity + $2, updated_at = now()
		WHERE product_id = $1
		RETURNING `+itemColumns, domain.ErrNotFound)
}

func (r *InventoryRepository) applyBatch(ctx context.Context, lines []domain.Line, stmt string, noRow error) ([]*domain.Item, error) {
	if err := domain.ValidateLines(lines); err != nil {
		return nil, err
	}
	merged := mergeLines(lines)

	var out []*domain.Item
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		out = make([]*domain.Item, 0, len(merged))
		for _, l := range merged {
			it, err := scanItem(tx.QueryRow(ctx, stmt, l.ProductID, l.Quantity))
			if errors.Is(err, pgx.ErrNoRows) {
				var exists bool
				if qerr := tx.QueryRow(ctx,
					`SELECT EXISTS (SELECT 1 FROM warehouse_products WHERE product_id = $1)`, l.ProductID,
				).Scan(&exists); qerr != nil {
					return qerr
				}
				if !exists {
					return domain.ErrNotFound
				}
				return noRow
			}
			if err != nil {
				return fmt.Errorf("inventory: %s: %w", l.ProductID, err)
			}
			out = append(out, it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mergeLines sums repeated products and orders the result by product id.
func mergeLines(lines []domain.Line) []domain.Line {
	sum := make(map[string]int, len(lines))
	for _, l := range lines {
		sum[l.ProductID] += l.Quantity
	}
	out := make([]domain.Line, 0, len(sum))
	for id, qty := range sum {
		out = append(out, domain.Line{ProductID: id, Quantity: qty})
	}
	slices.SortFunc(out, func(a, b domain.Line) int {
		switch {
		case a.ProductID < b.ProductID:
			return -1
		case a.ProductID > b.ProductID:
			return 1
		}
		return 0
	})
	return out
}
