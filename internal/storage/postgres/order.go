package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlevasseur/boutique-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order persistence backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order row and all item rows in one transaction. A crash
// mid-insert rolls everything back; no order without items, no orphan items.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, items []order.Item) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders
			(user_id, order_number, status, total_amount, shipping_address_id,
			 stripe_payment_intent_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING id, created_at, updated_at`,
		o.UserID, o.Number, o.Status, o.TotalAmount, o.ShippingAddressID, o.PaymentRef,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return 0, errors.Wrapf(err, "insert order %s", o.Number)
	}

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO order_items
				(order_id, product_id, product_name, product_image, quantity,
				 price_at_purchase)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)`,
			o.ID, item.ProductID, item.ProductName, item.ProductImage,
			item.Quantity, item.PriceAtPurchase)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, errors.Wrap(err, "insert order items")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	return o.ID, nil
}

const orderColumns = `id, user_id, order_number, status, total_amount,
	shipping_address_id, COALESCE(stripe_payment_intent_id, ''),
	COALESCE(tracking_number, ''), created_at, updated_at`

func scanOrder(row pgx.Row) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Number, &o.Status, &o.TotalAmount,
		&o.ShippingAddressID, &o.PaymentRef, &o.TrackingNumber,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// Get returns one order, or order.ErrNotFound.
func (r *OrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return o, nil
}

// ListItems returns an order's line items.
func (r *OrderRepository) ListItems(ctx context.Context, orderID int64) ([]order.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, product_name,
		       COALESCE(product_image, ''), quantity, price_at_purchase
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "list order items")
	}
	defer rows.Close()

	var out []order.Item
	for rows.Next() {
		var item order.Item
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID,
			&item.ProductName, &item.ProductImage, &item.Quantity,
			&item.PriceAtPurchase); err != nil {
			return nil, errors.Wrap(err, "scan order item")
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// UpdateStatus transitions an order's status, optionally recording a tracking
// number. Used by fulfillment tooling.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status, trackingNumber string) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE orders SET status = $2,
		       tracking_number = COALESCE(NULLIF($3, ''), tracking_number),
		       updated_at = now()
		WHERE id = $1`,
		id, status, trackingNumber)
	if err != nil {
		return errors.Wrap(err, "update order status")
	}
	if ct.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}
