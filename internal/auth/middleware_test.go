package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(RoleFromContext(r.Context())))
	})
}

func serve(t *testing.T, h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	mw := NewMiddleware([]byte("test-secret"), NewDefaultPolicy(nil, nil))
	resp := serve(t, mw.Wrap(okHandler()), http.MethodGet, "/api/v1/latest", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthMiddleware_ViewerReads(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "viewer", time.Hour)
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))

	resp := serve(t, mw.Wrap(okHandler()), http.MethodGet, "/api/v1/readings", token)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "viewer", resp.Body.String())
}

func TestAuthMiddleware_ViewerForbiddenRefresh(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "viewer", time.Hour)
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))

	resp := serve(t, mw.Wrap(okHandler()), http.MethodPost, "/api/v1/feed/refresh", token)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestAuthMiddleware_OperatorRefresh(t *testing.T) {
	secret := []byte("test-secret")
	token, err := IssueToken(secret, "ops-1", RoleOperator, time.Hour)
	require.NoError(t, err)
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))

	resp := serve(t, mw.Wrap(okHandler()), http.MethodPost, "/api/v1/feed/refresh", token)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "operator", resp.Body.String())
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "viewer", -time.Minute)
	mw := NewMiddleware(secret, NewDefaultPolicy(nil, nil))

	resp := serve(t, mw.Wrap(okHandler()), http.MethodGet, "/api/v1/latest", token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	token := mustToken(t, []byte("other"), "viewer", time.Hour)
	mw := NewMiddleware([]byte("test-secret"), NewDefaultPolicy(nil, nil))

	resp := serve(t, mw.Wrap(okHandler()), http.MethodGet, "/api/v1/latest", token)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthMiddleware_StreamIsPublicLikePage(t *testing.T) {
	mw := NewMiddleware([]byte("test-secret"), NewDefaultPolicy(nil, nil))
	h := mw.Wrap(okHandler())

	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/api/v1/stream", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, h, http.MethodGet, "/api/v1/snapshot?access_token=x", "").Code)
}

func TestAuthMiddleware_ExemptAndPublicPaths(t *testing.T) {
	mw := NewMiddleware([]byte("test-secret"), NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil))
	h := mw.Wrap(okHandler())

	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/", "").Code)
}

func TestAuthMiddleware_DisabledWithoutSecret(t *testing.T) {
	mw := NewMiddleware(nil, NewDefaultPolicy(nil, nil))
	resp := serve(t, mw.Wrap(okHandler()), http.MethodPost, "/api/v1/feed/refresh", "")
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestParseJWTRejectsUnknownRole(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "admin", time.Hour)
	_, err := ParseJWT(token, secret)
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = ParseJWT("", secret)
	assert.ErrorIs(t, err, ErrEmptyToken)
	_, err = ParseJWT(token, nil)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func mustToken(t *testing.T, secret []byte, role string, ttl time.Duration) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
