package ajax

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/services/svstatus"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/errorx"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/ginx"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/nonce"
)

// CheckStatusAction 状态轮询的 action 取值
const CheckStatusAction = "check_payment_status"

// NonceAction 轮询接口防伪令牌的动作名
const NonceAction = "simpleso_nonce"

// AjaxHandler 浏览器 AJAX 分发处理器
// 按表单里的 action 字段分发，当前只有支付状态轮询一个动作
type AjaxHandler struct {
	status *svstatus.StatusService
	nonces *nonce.Minter
	logger logger.Logger
}

// NewAjaxHandler 创建 AJAX 处理器实例
func NewAjaxHandler(status *svstatus.StatusService, nonces *nonce.Minter, log logger.Logger) *AjaxHandler {
	return &AjaxHandler{
		status: status,
		nonces: nonces,
		logger: log,
	}
}

// Dispatch 分发 AJAX 请求
// POST /ajax，表单字段 action/order_id/security
func (h *AjaxHandler) Dispatch(c *gin.Context) {
	switch c.PostForm("action") {
	case CheckStatusAction:
		h.checkPaymentStatus(c)
	default:
		ginx.AjaxError(c, "Unknown action")
	}
}

// checkPaymentStatus 支付状态轮询
// 弹窗打开期间浏览器每 5 秒调用一次，必须快速返回，不做任何外部调用
func (h *AjaxHandler) checkPaymentStatus(c *gin.Context) {
	ctx := c.Request.Context()

	if !h.nonces.Verify(NonceAction, c.PostForm("security")) {
		h.logger.Warnf(ctx, "payment status poll rejected: bad security token")
		ginx.AjaxError(c, "Invalid security token")
		return
	}

	orderID, err := strconv.ParseInt(c.PostForm("order_id"), 10, 64)
	if err != nil || orderID <= 0 {
		ginx.AjaxError(c, "Invalid order ID")
		return
	}

	result, err := h.status.CheckPaymentStatus(ctx, orderID)
	if err != nil {
		if errors.Is(err, errorx.ErrOrderNotFound) {
			ginx.AjaxError(c, "Order not found")
			return
		}
		h.logger.Errorf(ctx, "check payment status failed: order_id=%d, error=%v", orderID, err)
		ginx.AjaxError(c, "Failed to check payment status")
		return
	}

	data := gin.H{"status": result.Status}
	if result.RedirectURL != "" {
		data["redirect_url"] = result.RedirectURL
	}
	ginx.AjaxSuccess(c, data)
}
