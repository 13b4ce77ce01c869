package handler

import (
	"net/http"
	"strings"

	"github.com/mlevasseur/boutique-api/internal/domain/auth"
)

// requireUser authenticates the request via its bearer session token and
// injects the resolved user into the context. The token is HMAC-hashed with
// the configured pepper before lookup; raw tokens are never stored or
// compared.
func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		hash := auth.TokenHash(h.cfg.SessionPepper, token)
		user, err := h.sessions.FindUserBySessionHash(r.Context(), hash)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next(w, r.WithContext(auth.WithUser(r.Context(), *user)))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// requireAdmin authenticates like requireUser and additionally requires the
// admin role.
func (h *Handler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return h.requireUser(func(w http.ResponseWriter, r *http.Request) {
		if currentUser(r).Role != "admin" {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	})
}

// currentUser returns the user injected by requireUser.
func currentUser(r *http.Request) auth.User {
	u, _ := auth.UserFromContext(r.Context())
	return u
}
