package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/storefront/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-middleware-tests", 15*time.Minute)
}

func claimsCapture(captured **auth.Claims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := ClaimsFrom(r.Context()); ok {
			*captured = claims
		}
		w.WriteHeader(http.StatusOK)
	})
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

// ============================================
// AuthMiddleware Tests
// ============================================

func TestAuthMiddleware_Cookie(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("admin", auth.RoleAdmin)
	require.NoError(t, err)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/api/admin/form", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(claimsCapture(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "admin", captured.Username)
	assert.Equal(t, auth.RoleAdmin, captured.Role)
}

func TestAuthMiddleware_BearerHeader(t *testing.T) {
	jwtService := newTestJWTService()
	token, _, err := jwtService.GenerateAccessToken("ops", auth.RoleAdmin)
	require.NoError(t, err)

	var captured *auth.Claims
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	AuthMiddleware(jwtService)(claimsCapture(&captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", captured.Username)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	jwtService := newTestJWTService()

	tests := []struct {
		name    string
		header  string
		wantErr string
	}{
		{"missing", "", "admin sign-in required"},
		{"garbage", "Bearer not-a-token", auth.ErrInvalidToken.Error()},
		{"wrong scheme", "Basic abc", "admin sign-in required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *auth.Claims
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			AuthMiddleware(jwtService)(claimsCapture(&captured)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantErr, errorBody(t, rec))
			assert.Nil(t, captured)
		})
	}
}

// ============================================
// RequireRole Tests
// ============================================

func TestRequireRole(t *testing.T) {
	jwtService := newTestJWTService()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	chain := AuthMiddleware(jwtService)(RequireRole(auth.RoleAdmin)(ok))

	adminToken, _, err := jwtService.GenerateAccessToken("admin", auth.RoleAdmin)
	require.NoError(t, err)
	viewerToken, _, err := jwtService.GenerateAccessToken("viewer", "viewer")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+viewerToken)
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin role required", errorBody(t, rec))
}

func TestRequireRole_WithoutClaims(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireRole(auth.RoleAdmin)(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExtractToken_CookieWinsOverHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", ExtractToken(req))

	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", ExtractToken(req))
}
