// Package auth resolves the current shopper from an opaque bearer session
// token. Session issuance (login, OAuth) happens outside this service; here a
// token is only ever consumed.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrUnauthenticated indicates the request carries no valid session.
var ErrUnauthenticated = errors.New("unauthenticated")

// User is the authenticated shopper attached to a request context.
type User struct {
	ID    int64
	Email string
	Name  string
	Role  string
}

// Repository looks up the user owning a session by the HMAC hash of the
// session token. Expired sessions must not be returned.
type Repository interface {
	FindUserBySessionHash(ctx context.Context, hash string) (*User, error)
}

// TokenHash computes the hex-encoded HMAC-SHA256 of a session token under the
// given pepper. Only hashes are stored and compared; the raw token never
// touches the database.
func TokenHash(pepper []byte, token string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

type userKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	return u, ok
}
