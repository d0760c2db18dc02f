package webhook

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/config"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/modules/mdorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/services/svreconcile"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/errorx"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/ginx"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
)

// WebhookHandler 上游回调处理器
// 处理流程：鉴权 → 参数校验 → 加载订单 → 对账 → 响应
type WebhookHandler struct {
	orders    *mdorder.OrderModule
	reconcile *svreconcile.ReconcileService
	gateway   *config.GatewayConfig
	logger    logger.Logger
}

// NewWebhookHandler 创建回调处理器实例
func NewWebhookHandler(
	orders *mdorder.OrderModule,
	reconcile *svreconcile.ReconcileService,
	gateway *config.GatewayConfig,
	log logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		orders:    orders,
		reconcile: reconcile,
		gateway:   gateway,
		logger:    log,
	}
}

// webhookRequest 回调请求体
type webhookRequest struct {
	Nonce       string      `json:"nonce"`
	OrderID     json.Number `json:"order_id"`
	OrderStatus string      `json:"order_status"`
}

// Handle 处理回调请求
// POST /simpleso/v1/data
func (h *WebhookHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	// 请求体按宽松方式解析，缺失字段走后续各阶段的失败分支
	var req webhookRequest
	_ = c.ShouldBindJSON(&req)

	// 1. 鉴权：解码凭证并与当前模式的公钥做常量时间比较
	if !h.verifyAPIKey(req.Nonce) {
		h.logger.Errorf(ctx, "unauthorized access attempt")
		ginx.WebhookError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// 2. 参数校验：订单ID必须是正整数
	orderID, err := req.OrderID.Int64()
	if err != nil || orderID <= 0 {
		h.logger.Errorf(ctx, "invalid order ID")
		ginx.WebhookError(c, http.StatusBadRequest, "Invalid data")
		return
	}

	// 3. 加载订单
	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, errorx.ErrOrderNotFound) {
			h.logger.Errorf(ctx, "order not found: %d", orderID)
			ginx.WebhookError(c, http.StatusNotFound, "Order not found")
			return
		}
		h.logger.Errorf(ctx, "load order failed: order_id=%d, error=%v", orderID, err)
		ginx.WebhookError(c, http.StatusInternalServerError, "Failed to load order")
		return
	}

	// 4. 对账
	result, err := h.reconcile.Reconcile(ctx, order, req.OrderStatus)
	if err != nil {
		var ge *errorx.GatewayError
		if errors.As(err, &ge) {
			ginx.WebhookError(c, ge.HTTPStatus(), ge.Message)
			return
		}
		ginx.WebhookError(c, http.StatusInternalServerError, "Failed to update order status")
		return
	}

	// 5. 响应
	ginx.WebhookOK(c, "Order status updated successfully", result.PaymentReturnURL)
}

// verifyAPIKey 校验回调凭证：base64 解码后与当前生效公钥比对
func (h *WebhookHandler) verifyAPIKey(encoded string) bool {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}

	publicKey := h.gateway.ActivePublicKey()
	if publicKey == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(publicKey), decoded) == 1
}
