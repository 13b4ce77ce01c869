package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlevasseur/boutique-api/internal/domain/catalog"
)

var (
	_ catalog.Repository       = (*CatalogRepository)(nil)
	_ catalog.ReviewRepository = (*ReviewRepository)(nil)
)

// CatalogRepository implements catalog reads backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

const productColumns = `id, COALESCE(category_id, 0), name, slug, description,
	price, images, stock, rating, featured, is_new, created_at, updated_at`

func scanProduct(row pgx.Row) (*catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Name, &p.Slug, &p.Description,
		&p.Price, &p.Images, &p.Stock, &p.Rating, &p.Featured, &p.New,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListCategories returns all categories ordered by name.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, slug, COALESCE(image, ''), created_at
		FROM categories ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	defer rows.Close()

	var out []catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan category")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListProducts returns products matching the filter, newest first.
func (r *CatalogRepository) ListProducts(ctx context.Context, f catalog.ListFilter) ([]catalog.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []any{}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		query += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if f.Featured != nil {
		args = append(args, *f.Featured)
		query += fmt.Sprintf(" AND featured = $%d", len(args))
	}
	if f.New != nil {
		args = append(args, *f.New)
		query += fmt.Sprintf(" AND is_new = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetProductBySlug returns one product, or catalog.ErrNotFound.
func (r *CatalogRepository) GetProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", slug)
	}
	return p, nil
}

// GetProductByID returns one product, or catalog.ErrNotFound.
func (r *CatalogRepository) GetProductByID(ctx context.Context, id int64) (*catalog.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return p, nil
}

// ReviewRepository implements review persistence backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// ListByProduct returns a product's reviews with reviewer names, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID int64) ([]catalog.Review, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rv.id, rv.product_id, rv.user_id, rv.rating,
		       COALESCE(rv.comment, ''), rv.created_at, COALESCE(u.name, '')
		FROM reviews rv
		LEFT JOIN users u ON u.id = rv.user_id
		WHERE rv.product_id = $1
		ORDER BY rv.created_at DESC`, productID)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	defer rows.Close()

	var out []catalog.Review
	for rows.Next() {
		var rv catalog.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating,
			&rv.Comment, &rv.CreatedAt, &rv.ReviewerName); err != nil {
			return nil, errors.Wrap(err, "scan review")
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// Create inserts a review and refreshes the product's rating aggregate in the
// same transaction.
func (r *ReviewRepository) Create(ctx context.Context, rv *catalog.Review) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (product_id, user_id, rating, comment)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id, created_at`,
		rv.ProductID, rv.UserID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "insert review")
	}

	_, err = tx.Exec(ctx, `
		UPDATE products SET rating = sub.avg_rating, updated_at = now()
		FROM (
			SELECT ROUND(AVG(rating)::numeric, 2) AS avg_rating
			FROM reviews WHERE product_id = $1
		) sub
		WHERE products.id = $1`, rv.ProductID)
	if err != nil {
		return errors.Wrap(err, "refresh rating")
	}

	return tx.Commit(ctx)
}
