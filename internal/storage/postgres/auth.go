package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlevasseur/boutique-api/internal/domain/auth"
)

var _ auth.Repository = (*AuthRepository)(nil)

// AuthRepository resolves session token hashes to users.
type AuthRepository struct {
	pool *pgxpool.Pool
}

// NewAuthRepository returns an AuthRepository that uses the given pool.
func NewAuthRepository(pool *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{pool: pool}
}

// FindUserBySessionHash returns the user owning a non-expired session.
func (r *AuthRepository) FindUserBySessionHash(ctx context.Context, hash string) (*auth.User, error) {
	var u auth.User
	err := r.pool.QueryRow(ctx, `
		SELECT u.id, COALESCE(u.email, ''), COALESCE(u.name, ''), u.role
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1 AND s.expires_at > now()`,
		hash,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "find session")
	}
	return &u, nil
}
