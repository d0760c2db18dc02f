package checkout

import (
	"github.com/gin-gonic/gin"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/config"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/services/svpayment"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/ginx"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/nonce"
)

// ConsentNonceAction 下单表单防伪令牌的动作名
const ConsentNonceAction = "simpleso_payment"

// CheckoutHandler 下单处理器
type CheckoutHandler struct {
	payments *svpayment.PaymentService
	gateway  *config.GatewayConfig
	nonces   *nonce.Minter
	logger   logger.Logger
}

// NewCheckoutHandler 创建下单处理器实例
func NewCheckoutHandler(
	payments *svpayment.PaymentService,
	gateway *config.GatewayConfig,
	nonces *nonce.Minter,
	log logger.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		payments: payments,
		gateway:  gateway,
		nonces:   nonces,
		logger:   log,
	}
}

// checkoutRequest 下单表单
type checkoutRequest struct {
	PaymentMethod string `form:"payment_method" binding:"required"`
	OrderID       int64  `form:"order_id" binding:"required,gt=0"`
	Consent       string `form:"simpleso_consent"`
	Nonce         string `form:"simpleso_nonce"`
}

// Handle 处理下单请求
// POST /checkout，表单序列化提交，响应供浏览器侧编排器消费
func (h *CheckoutHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	var req checkoutRequest
	if err := c.ShouldBind(&req); err != nil {
		ginx.CheckoutFailure(c, ginx.BindingErrorMessage(err))
		return
	}

	// 只接管本网关的下单，其余支付方式由宿主结账流程处理
	if req.PaymentMethod != svpayment.GatewayID {
		ginx.CheckoutFailure(c, "Unsupported payment method")
		return
	}

	if !h.payments.Available() {
		ginx.CheckoutFailure(c, "SimpleSo payment method is currently unavailable. Please contact support for assistance.")
		return
	}

	// 勾选同意项开启时校验令牌和勾选状态
	if h.gateway.ShowConsentCheckbox {
		if !h.nonces.Verify(ConsentNonceAction, req.Nonce) {
			ginx.CheckoutFailure(c, "Nonce verification failed. Please try again.")
			return
		}
		if req.Consent != "on" {
			ginx.CheckoutFailure(c, "You must consent to the collection of your data to process this payment.")
			return
		}
	}

	result := h.payments.ProcessPayment(ctx, req.OrderID, c.ClientIP())
	if !result.Success {
		h.logger.Warnf(ctx, "checkout failed: order_id=%d, message=%s", req.OrderID, result.Message)
		ginx.CheckoutFailure(c, result.Message)
		return
	}

	ginx.CheckoutSuccess(c, result.PaymentLink, result.OrderID)
}

// Gateways 可用支付方式列表
// GET /gateways，商城前端用来渲染结账页的支付方式
func (h *CheckoutHandler) Gateways(c *gin.Context) {
	ginx.AjaxSuccess(c, gin.H{"gateways": h.payments.AvailableGateways()})
}
