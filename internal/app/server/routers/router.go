package routers

import (
	"github.com/gin-gonic/gin"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/server/handlers/ajax"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/server/handlers/checkout"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/server/handlers/webhook"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/server/middlewares"
)

// SetupRoutes 配置所有路由
func SetupRoutes(
	checkoutHandler *checkout.CheckoutHandler,
	webhookHandler *webhook.WebhookHandler,
	ajaxHandler *ajax.AjaxHandler,
	log logger.Logger,
) *gin.Engine {
	r := gin.New()

	r.Use(middlewares.Recovery(log))
	r.Use(middlewares.Logger(log))
	r.Use(middlewares.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "simpleso-payment-gateway",
			"message": "Service is running",
		})
	})

	// 上游回调（浏览器重定向也会打到这里，预检由 CORS 中间件应答）
	v1 := r.Group("/simpleso/v1")
	{
		v1.POST("/data", webhookHandler.Handle)
		v1.OPTIONS("/data", func(c *gin.Context) {})
	}

	// 结账相关
	r.POST("/checkout", checkoutHandler.Handle)
	r.GET("/gateways", checkoutHandler.Gateways)

	// 浏览器 AJAX 分发入口（支付状态轮询）
	r.POST("/ajax", ajaxHandler.Dispatch)

	return r
}
