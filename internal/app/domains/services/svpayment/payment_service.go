package svpayment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/atomic"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/config"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/entity/etorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/modules/mdorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/infra/processor"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/errorx"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/nonce"
)

// GatewayID 网关标识，下单表单里的 payment_method 取值
const GatewayID = "simpleso"

// PaymentNonceAction 回调地址防重放令牌的动作名
const PaymentNonceAction = "simpleso_payment_nonce"

// 订单备注与元数据文案
const (
	originTag         = "simpleso_payment_gateway"
	sandboxNote       = "This is a test order in sandbox mode."
	pendingNote       = "Payment pending."
	awaitingNote      = "Payment initiated via SimpleSo Payment Gateway. Awaiting customer action."
	metaSource        = "storefront"
	requestSource     = "storefront"
	redirectSeconds   = 3
	unavailableNotice = "SimpleSo payment method is currently unavailable. Please contact support for assistance."
)

// ProcessorClient 上游客户端接口
type ProcessorClient interface {
	CheckDailyLimit(ctx context.Context, req *processor.PaymentRequest) error
	RequestPaymentLink(ctx context.Context, req *processor.PaymentRequest) *processor.PaymentOutcome
}

// CheckoutResult 下单处理结果
type CheckoutResult struct {
	Success     bool
	PaymentLink string
	OrderID     int64
	Message     string // 失败时的买家可见提示
}

// GatewayInfo 可用支付方式描述
type GatewayInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PaymentService 支付发起服务
type PaymentService struct {
	orders    *mdorder.OrderModule
	processor ProcessorClient
	gateway   *config.GatewayConfig
	baseURL   string
	nonces    *nonce.Minter
	logger    logger.Logger

	// 日限额触发后整个进程内下线网关，下一次限额检查通过时恢复
	disabled *atomic.Bool
}

// NewPaymentService 创建支付服务实例
func NewPaymentService(
	orders *mdorder.OrderModule,
	processorClient ProcessorClient,
	gateway *config.GatewayConfig,
	baseURL string,
	nonces *nonce.Minter,
	log logger.Logger,
) *PaymentService {
	return &PaymentService{
		orders:    orders,
		processor: processorClient,
		gateway:   gateway,
		baseURL:   baseURL,
		nonces:    nonces,
		logger:    log,
		disabled:  atomic.NewBool(false),
	}
}

// AvailableGateways 当前可用的支付方式列表
// 网关未启用或触发了日限额下线时不对外展示
func (s *PaymentService) AvailableGateways() []GatewayInfo {
	if !s.gateway.Enabled || s.disabled.Load() {
		return []GatewayInfo{}
	}
	return []GatewayInfo{{
		ID:          GatewayID,
		Title:       s.gateway.Title,
		Description: s.gateway.Description,
	}}
}

// Available 网关当前是否可用
func (s *PaymentService) Available() bool {
	return s.gateway.Enabled && !s.disabled.Load()
}

// ProcessPayment 处理一次下单请求，返回托管支付链接
// 流程：加载订单 → 沙箱标记 → 日限额预检 → 来源标记 → 请求支付链接 → 订单转 pending
func (s *PaymentService) ProcessPayment(ctx context.Context, orderID int64, clientIP string) *CheckoutResult {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		s.logger.Errorf(ctx, "load order failed: order_id=%d, error=%v", orderID, err)
		return &CheckoutResult{Success: false, Message: "Invalid order. Please try again."}
	}

	if s.gateway.Sandbox && !order.IsTestOrder {
		order.MarkAsTest()
		if err := s.orders.MarkOrderMeta(ctx, order); err != nil {
			s.logger.Warnf(ctx, "mark test order failed: order_id=%d, error=%v", order.ID, err)
		}
		if err := s.orders.AddOrderNote(ctx, order, sandboxNote, false); err != nil {
			s.logger.Warnf(ctx, "add sandbox note failed: order_id=%d, error=%v", order.ID, err)
		}
	}

	req := s.buildPaymentRequest(order, clientIP)

	if err := s.processor.CheckDailyLimit(ctx, req); err != nil {
		if errorx.KindOf(err) == errorx.KindLimitExceeded {
			// 硬停止：余下时间内不再提供该支付方式
			s.disabled.Store(true)
			return &CheckoutResult{Success: false, Message: "Payment error: " + unavailableNotice}
		}
		return &CheckoutResult{Success: false, Message: "Payment error: Unable to process payment."}
	}
	// 限额检查通过，恢复可用
	s.disabled.Store(false)

	order.OriginTag = originTag
	if err := s.orders.MarkOrderMeta(ctx, order); err != nil {
		s.logger.Warnf(ctx, "tag order origin failed: order_id=%d, error=%v", order.ID, err)
	}

	outcome := s.processor.RequestPaymentLink(ctx, req)
	if !outcome.Success {
		return &CheckoutResult{Success: false, Message: "Payment error: " + outcome.Message}
	}

	if err := s.orders.TransitionStatus(ctx, order, etorder.OrderStatusPending, pendingNote); err != nil {
		s.logger.Errorf(ctx, "transition order to pending failed: order_id=%d, error=%v", order.ID, err)
		return &CheckoutResult{Success: false, Message: "Payment error: Unable to process payment."}
	}

	// 重复提交不追加第二条等待备注
	if !order.HasNote(awaitingNote) {
		if err := s.orders.AddOrderNote(ctx, order, awaitingNote, false); err != nil {
			s.logger.Warnf(ctx, "add awaiting note failed: order_id=%d, error=%v", order.ID, err)
		}
	}

	return &CheckoutResult{
		Success:     true,
		PaymentLink: outcome.PaymentLink,
		OrderID:     order.ID,
	}
}

// buildPaymentRequest 组装上游支付请求，每次下单新构造
func (s *PaymentService) buildPaymentRequest(order *etorder.Order, clientIP string) *processor.PaymentRequest {
	metaData, _ := json.Marshal(map[string]interface{}{
		"source":   metaSource,
		"order_id": order.ID,
	})

	mode := "live"
	if s.gateway.Sandbox {
		mode = "sandbox"
	}

	redirect := url.Values{}
	redirect.Set("order_id", fmt.Sprintf("%d", order.ID))
	redirect.Set("key", order.OrderKey)
	redirect.Set("nonce", s.nonces.Mint(PaymentNonceAction))
	redirect.Set("mode", mode)

	return &processor.PaymentRequest{
		APISecret:    s.gateway.ActiveSecretKey(),
		APIPublicKey: s.gateway.ActivePublicKey(),

		FirstName:  order.Billing.FirstName,
		LastName:   order.Billing.LastName,
		RequestFor: order.Billing.ContactRef(),
		Amount:     order.FormattedTotal(),

		RedirectURL:  fmt.Sprintf("%s/simpleso/v1/data?%s", s.baseURL, redirect.Encode()),
		RedirectTime: redirectSeconds,
		IPAddress:    clientIP,
		Source:       requestSource,
		MetaData:     string(metaData),
		Remarks:      fmt.Sprintf("Order #%d", order.ID),

		BillingAddress1: order.Billing.Address1,
		BillingAddress2: order.Billing.Address2,
		BillingCity:     order.Billing.City,
		BillingPostcode: order.Billing.Postcode,
		BillingCountry:  order.Billing.Country,
		BillingState:    order.Billing.State,

		IsSandbox: s.gateway.Sandbox,
	}
}
