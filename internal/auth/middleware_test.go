package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/auth"
	"ms-ordering/internal/config"
	"ms-ordering/internal/models"
)

const testSecret = "test-secret"

func newHMACVerifier(t *testing.T) *auth.Verifier {
	t.Helper()
	verifier, err := auth.NewVerifier(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)
	return verifier
}

func signToken(t *testing.T, sub, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-User", auth.UserID(r.Context()))
	w.Header().Set("X-Role", string(auth.Role(r.Context())))
	w.WriteHeader(http.StatusOK)
}

func TestNewVerifier_RequiresSomeMode(t *testing.T) {
	_, err := auth.NewVerifier(config.AuthConfig{})
	assert.Error(t, err)
}

func TestMiddleware_AnonymousPassesThrough(t *testing.T) {
	verifier := newHMACVerifier(t)
	handler := verifier.Middleware()(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))
	assert.Empty(t, rec.Header().Get("X-Role"))
}

func TestMiddleware_ValidToken(t *testing.T) {
	verifier := newHMACVerifier(t)
	handler := verifier.Middleware()(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", "server"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Header().Get("X-User"))
	assert.Equal(t, "server", rec.Header().Get("X-Role"))
}

func TestMiddleware_InvalidTokenRejected(t *testing.T) {
	verifier := newHMACVerifier(t)
	handler := verifier.Middleware()(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_WrongSecretRejected(t *testing.T) {
	verifier := newHMACVerifier(t)
	handler := verifier.Middleware()(http.HandlerFunc(echoIdentity))

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "intruder", "role": "admin",
	})
	signed, err := forged.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_UnknownRoleRejected(t *testing.T) {
	verifier := newHMACVerifier(t)
	handler := verifier.Middleware()(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", "superuser"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_MalformedHeaderRejected(t *testing.T) {
	verifier := newHMACVerifier(t)
	handler := verifier.Middleware()(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoles(t *testing.T) {
	verifier := newHMACVerifier(t)
	protected := verifier.Middleware()(
		auth.RequireRoles(models.RoleAdmin, models.RoleServer)(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})))

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"server allowed", signToken(t, "u1", "server"), http.StatusOK},
		{"admin allowed", signToken(t, "u2", "admin"), http.StatusOK},
		{"kitchen forbidden", signToken(t, "u3", "kitchen"), http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			protected.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}
