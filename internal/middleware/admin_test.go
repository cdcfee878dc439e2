package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codemail/backend/internal/auth/session"
)

func TestRequireAdminSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/api/mailbox/new", RequireAdminSecret("super-secret"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	t.Run("口令正确放行", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/mailbox/new?admin=super-secret", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("口令错误返回403", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/mailbox/new?admin=wrong", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())
	})

	t.Run("缺少口令返回403", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/mailbox/new", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sessions := session.NewManager("0123456789abcdef0123456789abcdef", "codemail", 15*time.Minute)

	router := gin.New()
	router.GET("/api/emails/:code", RequireSession(sessions), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": c.GetString(ContextMailboxCode)})
	})

	t.Run("令牌匹配编码时放行", func(t *testing.T) {
		token, err := sessions.Issue("swift-fox-123")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/emails/swift-fox-123", nil)
		req.Header.Set("X-Session-Token", token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "swift-fox-123")
	})

	t.Run("Bearer头也可以携带令牌", func(t *testing.T) {
		token, err := sessions.Issue("swift-fox-123")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/emails/swift-fox-123", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("令牌编码与路径不一致返回401", func(t *testing.T) {
		token, err := sessions.Issue("wise-moon-900")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/emails/swift-fox-123", nil)
		req.Header.Set("X-Session-Token", token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("缺少令牌返回401", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/emails/swift-fox-123", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	})

	t.Run("伪造令牌返回401", func(t *testing.T) {
		other := session.NewManager("ffffffffffffffffffffffffffffffff", "codemail", 15*time.Minute)
		token, err := other.Issue("swift-fox-123")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/emails/swift-fox-123", nil)
		req.Header.Set("X-Session-Token", token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireSessionOrAdminSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sessions := session.NewManager("0123456789abcdef0123456789abcdef", "codemail", 15*time.Minute)

	router := gin.New()
	router.GET("/api/emails/:code",
		RequireSessionOrAdminSecret(sessions, "super-secret"),
		func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

	t.Run("管理员口令可查任意编码", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/emails/wise-moon-900?admin=super-secret", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("管理员口令错误返回403", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/emails/wise-moon-900?admin=wrong", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"Forbidden"}`, w.Body.String())
	})

	t.Run("无admin参数时走会话校验", func(t *testing.T) {
		token, err := sessions.Issue("swift-fox-123")
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/emails/swift-fox-123", nil)
		req.Header.Set("X-Session-Token", token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		req = httptest.NewRequest("GET", "/api/emails/swift-fox-123", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
