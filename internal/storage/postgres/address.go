package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlevasseur/boutique-api/internal/domain/address"
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address persistence backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

const addressColumns = `id, user_id, full_name, address_line1,
	COALESCE(address_line2, ''), city, postal_code, country,
	COALESCE(phone, ''), is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (*address.Address, error) {
	var a address.Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.FullName, &a.Line1, &a.Line2,
		&a.City, &a.PostalCode, &a.Country, &a.Phone, &a.Default,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByUser returns the user's addresses, default first.
func (r *AddressRepository) ListByUser(ctx context.Context, userID int64) ([]address.Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses
		 WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list addresses")
	}
	defer rows.Close()

	var out []address.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan address")
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Get returns one address, or address.ErrNotFound.
func (r *AddressRepository) Get(ctx context.Context, id int64) (*address.Address, error) {
	a, err := scanAddress(r.pool.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get address %d", id)
	}
	return a, nil
}

// Create inserts an address and returns the stored row.
func (r *AddressRepository) Create(ctx context.Context, userID int64, in address.Input) (*address.Address, error) {
	a, err := scanAddress(r.pool.QueryRow(ctx, `
		INSERT INTO addresses
			(user_id, full_name, address_line1, address_line2, city,
			 postal_code, country, phone, is_default)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, NULLIF($8, ''), $9)
		RETURNING `+addressColumns,
		userID, in.FullName, in.Line1, in.Line2, in.City,
		in.PostalCode, in.Country, in.Phone, in.Default))
	if err != nil {
		return nil, errors.Wrap(err, "insert address")
	}
	return a, nil
}

// Update overwrites an address's mutable fields.
func (r *AddressRepository) Update(ctx context.Context, id int64, in address.Input) error {
	ct, err := r.pool.Exec(ctx, `
		UPDATE addresses SET
			full_name = $2, address_line1 = $3, address_line2 = NULLIF($4, ''),
			city = $5, postal_code = $6, country = $7, phone = NULLIF($8, ''),
			is_default = $9, updated_at = now()
		WHERE id = $1`,
		id, in.FullName, in.Line1, in.Line2, in.City,
		in.PostalCode, in.Country, in.Phone, in.Default)
	if err != nil {
		return errors.Wrap(err, "update address")
	}
	if ct.RowsAffected() == 0 {
		return address.ErrNotFound
	}
	return nil
}

// Delete removes an address.
func (r *AddressRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "delete address")
	}
	return nil
}

// ClearDefault unsets the default flag on all of the user's addresses.
func (r *AddressRepository) ClearDefault(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID)
	if err != nil {
		return errors.Wrap(err, "clear default address")
	}
	return nil
}
