package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"codemail/backend/internal/auth/session"
)

// ContextMailboxCode 会话认证通过后邮箱编码在上下文里的键
const ContextMailboxCode = "mailboxCode"

// RequireSession 会话令牌中间件。
//
// 令牌从 X-Session-Token 头或 Authorization Bearer 头获取。
// 令牌无效、过期或与路径中的编码不一致时返回 401。
func RequireSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := sessions.Validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		// 令牌绑定单个编码，只能读自己的收件箱
		if code := c.Param("code"); code != "" && claims.MailboxCode != code {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		c.Set(ContextMailboxCode, claims.MailboxCode)
		c.Next()
	}
}

// RequireSessionOrAdminSecret 会话或管理员能力中间件。
//
// 管理员凭口令可以查看任意编码的收件箱（找回场景）；
// 普通访问走会话令牌校验。携带了 admin 参数但口令不对时
// 返回 403，与其他管理员入口一致，不回落到会话校验。
func RequireSessionOrAdminSecret(sessions *session.Manager, adminSecret string) gin.HandlerFunc {
	requireSession := RequireSession(sessions)
	return func(c *gin.Context) {
		if provided := c.Query("admin"); provided != "" {
			if subtle.ConstantTimeCompare([]byte(provided), []byte(adminSecret)) == 1 {
				c.Next()
				return
			}
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}

		requireSession(c)
	}
}

func extractToken(c *gin.Context) string {
	if token := c.GetHeader("X-Session-Token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return ""
}
