package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdminSecret 管理员能力中间件。
//
// 持有管理员口令本身就是管理员能力，没有管理员账号体系。
// 口令通过 admin 查询参数携带，不相等一律返回 403。
func RequireAdminSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.Query("admin")

		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			c.Abort()
			return
		}

		c.Next()
	}
}
