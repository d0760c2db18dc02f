package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
)

// Recovery 兜底恢复中间件
// 任何处理分支都不允许把 panic 抛到买家可见的流程上
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf(c.Request.Context(), "panic recovered: %v", r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()

		c.Next()
	}
}
