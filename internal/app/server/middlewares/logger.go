package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
)

// Logger 请求日志中间件
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Infof(c.Request.Context(), "request: method=%s, path=%s, status=%d, cost=%s",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
