package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS 跨域支持
// 回调可能来自上游支付页的浏览器重定向，放开来源；预检请求直接 200 返回空体
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
