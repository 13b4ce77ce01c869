package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlevasseur/boutique-api/internal/domain/cart"
	"github.com/mlevasseur/boutique-api/internal/domain/catalog"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart persistence backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// ListByUser returns the user's cart rows left-joined with products. Rows
// whose product has been deleted come back with a nil Product.
func (r *CartRepository) ListByUser(ctx context.Context, userID int64) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.created_at, ci.updated_at,
		       p.id, COALESCE(p.category_id, 0), COALESCE(p.name, ''), COALESCE(p.slug, ''),
		       COALESCE(p.description, ''), COALESCE(p.price, 0), COALESCE(p.images, '[]'),
		       COALESCE(p.stock, 0), COALESCE(p.rating, 0), COALESCE(p.featured, FALSE),
		       COALESCE(p.is_new, FALSE)
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart items")
	}
	defer rows.Close()

	var out []cart.Line
	for rows.Next() {
		var (
			l         cart.Line
			productID *int64
			p         catalog.Product
		)
		err := rows.Scan(
			&l.Item.ID, &l.Item.UserID, &l.Item.ProductID, &l.Item.Quantity,
			&l.Item.CreatedAt, &l.Item.UpdatedAt,
			&productID, &p.CategoryID, &p.Name, &p.Slug, &p.Description,
			&p.Price, &p.Images, &p.Stock, &p.Rating, &p.Featured, &p.New,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan cart line")
		}
		if productID != nil {
			p.ID = *productID
			l.Product = &p
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetItem returns one cart row, or cart.ErrItemNotFound.
func (r *CartRepository) GetItem(ctx context.Context, id int64) (*cart.Item, error) {
	var item cart.Item
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, product_id, quantity, created_at, updated_at
		FROM cart_items WHERE id = $1`, id,
	).Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrItemNotFound
		}
		return nil, errors.Wrap(err, "get cart item")
	}
	return &item, nil
}

// Add upserts a cart row. The increment happens inside the UPDATE so
// concurrent adds for the same (user, product) pair are linearized by the
// database row lock; no read-modify-write round trip.
func (r *CartRepository) Add(ctx context.Context, userID, productID int64, quantity int32) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
		              updated_at = now()`,
		userID, productID, quantity)
	if err != nil {
		return errors.Wrap(err, "upsert cart item")
	}
	return nil
}

// SetQuantity overwrites a row's quantity.
func (r *CartRepository) SetQuantity(ctx context.Context, id int64, quantity int32) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE cart_items SET quantity = $2, updated_at = now() WHERE id = $1`,
		id, quantity)
	if err != nil {
		return errors.Wrap(err, "update cart item")
	}
	if ct.RowsAffected() == 0 {
		return cart.ErrItemNotFound
	}
	return nil
}

// Delete removes one cart row.
func (r *CartRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "delete cart item")
	}
	return nil
}

// Clear removes every cart row for the user.
func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
