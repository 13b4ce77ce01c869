package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevasseur/boutique-api/internal/domain/auth"
)

// --- Mock implementation ---

type mockSessionRepo struct {
	byHash map[string]*auth.User
}

func (m *mockSessionRepo) FindUserBySessionHash(_ context.Context, hash string) (*auth.User, error) {
	u, ok := m.byHash[hash]
	if !ok {
		return nil, auth.ErrUnauthenticated
	}
	return u, nil
}

// --- Helpers ---

var testPepper = []byte("test-pepper")

func newAuthHandler(users map[string]*auth.User) *Handler {
	byHash := make(map[string]*auth.User, len(users))
	for token, u := range users {
		byHash[auth.TokenHash(testPepper, token)] = u
	}
	return &Handler{
		cfg:      Config{SessionPepper: testPepper},
		sessions: &mockSessionRepo{byHash: byHash},
	}
}

func whoami(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int64{"id": currentUser(r).ID})
}

// --- Tests ---

func TestRequireUser_ValidToken(t *testing.T) {
	h := newAuthHandler(map[string]*auth.User{
		"tok123": {ID: 10, Email: "jean@example.com"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer tok123")
	rec := httptest.NewRecorder()
	h.requireUser(whoami)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":10}`, rec.Body.String())
}

func TestRequireUser_MissingHeader(t *testing.T) {
	h := newAuthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	h.requireUser(whoami)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUser_WrongScheme(t *testing.T) {
	h := newAuthHandler(map[string]*auth.User{"tok123": {ID: 10}})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Basic dG9rMTIz")
	rec := httptest.NewRecorder()
	h.requireUser(whoami)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUser_UnknownToken(t *testing.T) {
	h := newAuthHandler(map[string]*auth.User{"tok123": {ID: 10}})

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer someone-elses-token")
	rec := httptest.NewRecorder()
	h.requireUser(whoami)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUser_EmptyBearer(t *testing.T) {
	h := newAuthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	h.requireUser(whoami)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenHash_Deterministic(t *testing.T) {
	a := auth.TokenHash(testPepper, "tok123")
	b := auth.TokenHash(testPepper, "tok123")
	c := auth.TokenHash([]byte("other-pepper"), "tok123")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
