package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/bagstore/internal/domain"
	"example.com/bagstore/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestManager создаёт JWT менеджер с blacklist на miniredis.
func newTestManager(t *testing.T) (*auth.Manager, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	manager, err := auth.NewManager(auth.Config{
		Secret:   "test-secret-key",
		Issuer:   "bagstore-test",
		TokenTTL: time.Hour,
	}, auth.NewBlacklist(client))
	require.NoError(t, err)

	return manager, mr
}

// setupAuthRouter собирает роутер с защищённым маршрутом.
func setupAuthRouter(manager *auth.Manager) *gin.Engine {
	r := gin.New()
	mw := NewAuthMiddleware(manager)
	r.GET("/protected", mw.Handle(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserID),
			"role":    c.GetString(CtxRole),
		})
	})
	return r
}

// =====================================
// Тесты ExtractBearerToken
// =====================================

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"валидный Bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"регистронезависимый префикс", "bearer abc.def.ghi", "abc.def.ghi"},
		{"пустой заголовок", "", ""},
		{"без префикса", "abc.def.ghi", ""},
		{"чужая схема", "Basic dXNlcjpwYXNz", ""},
		{"только префикс", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}

			assert.Equal(t, tt.expected, ExtractBearerToken(c))
		})
	}
}

// =====================================
// Тесты AuthMiddleware
// =====================================

func TestAuthMiddleware_Handle(t *testing.T) {
	t.Run("валидный токен пропускается, claims в контексте", func(t *testing.T) {
		manager, _ := newTestManager(t)
		router := setupAuthRouter(manager)

		token, _, err := manager.Generate("user-1", domain.RoleCustomer)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-1")
		assert.Contains(t, w.Body.String(), domain.RoleCustomer)
	})

	t.Run("без токена возвращается 401", func(t *testing.T) {
		manager, _ := newTestManager(t)
		router := setupAuthRouter(manager)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "unauthorized")
	})

	t.Run("подделанный токен отклоняется", func(t *testing.T) {
		manager, _ := newTestManager(t)
		router := setupAuthRouter(manager)

		other, err := auth.NewManager(auth.Config{
			Secret:   "another-secret",
			Issuer:   "bagstore-test",
			TokenTTL: time.Hour,
		}, nil)
		require.NoError(t, err)

		token, _, err := other.Generate("user-1", domain.RoleCustomer)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("отозванный токен отклоняется", func(t *testing.T) {
		manager, _ := newTestManager(t)
		router := setupAuthRouter(manager)

		token, _, err := manager.Generate("user-1", domain.RoleCustomer)
		require.NoError(t, err)
		require.NoError(t, manager.Revoke(context.Background(), token))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =====================================
// Тесты RequireAdmin
// =====================================

func TestRequireAdmin(t *testing.T) {
	manager, _ := newTestManager(t)

	r := gin.New()
	mw := NewAuthMiddleware(manager)
	r.GET("/admin", mw.Handle(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	t.Run("админ проходит", func(t *testing.T) {
		token, _, err := manager.Generate("admin-1", domain.RoleAdmin)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("покупатель получает 403", func(t *testing.T) {
		token, _, err := manager.Generate("user-1", domain.RoleCustomer)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
