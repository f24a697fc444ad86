package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCan(t *testing.T) {
	tests := []struct {
		role string
		perm string
		want bool
	}{
		{RoleAdmin, PermStorageAdmin, true},
		{RoleChefChantier, PermRapportsDelete, true},
		{RoleChefChantier, PermStorageAdmin, false},
		{RoleAgent, PermPhotosWrite, true},
		{RoleAgent, PermRapportsWrite, false},
		{RoleLecteur, PermRapportsRead, true},
		{RoleLecteur, PermPhotosWrite, false},
		{"inconnu", PermRapportsRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"/"+tt.perm, func(t *testing.T) {
			assert.Equal(t, tt.want, Can(tt.role, tt.perm))
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	raw, err := m.IssueToken("u-1", "Alice", RoleChefChantier)
	require.NoError(t, err)

	claims, err := m.ParseToken(raw)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, RoleChefChantier, claims.Role)
	assert.True(t, claims.Can(PermRapportsWrite))
}

func TestTokenRejected(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	t.Run("unknown role at issue", func(t *testing.T) {
		_, err := m.IssueToken("u-1", "Alice", "root")
		assert.ErrorIs(t, err, ErrUnknownRole)
	})

	t.Run("wrong secret", func(t *testing.T) {
		raw, err := NewTokenManager("other", time.Hour).IssueToken("u-1", "", RoleAdmin)
		require.NoError(t, err)
		_, err = m.ParseToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := NewTokenManager("secret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		raw, err := past.IssueToken("u-1", "", RoleAdmin)
		require.NoError(t, err)
		_, err = m.ParseToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: RoleAdmin})
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.ParseToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role in token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Role: "root"})
		raw, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = m.ParseToken(raw)
		assert.ErrorIs(t, err, ErrUnknownRole)
	})
}

func newAuthRouter(m *TokenManager, perm string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", RequireAuth(m), RequirePermission(perm), func(c *gin.Context) {
		claims, _ := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"role": claims.Role})
	})
	return router
}

func TestMiddleware(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	router := newAuthRouter(m, PermRapportsWrite)

	chef, err := m.IssueToken("u-1", "", RoleChefChantier)
	require.NoError(t, err)
	lecteur, err := m.IssueToken("u-2", "", RoleLecteur)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"missing permission", "Bearer " + lecteur, http.StatusForbidden},
		{"allowed", "Bearer " + chef, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestMiddlewareDisabled(t *testing.T) {
	router := newAuthRouter(nil, PermStorageAdmin)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), RoleAdmin)
}
