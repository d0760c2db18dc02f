package svreconcile

import (
	"context"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/config"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/entity/etorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/modules/mdorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/errorx"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
)

// 状态流转备注文案
const statusUpdatedNote = "Order status updated via API"

// CartClearer 购物车清理接口
type CartClearer interface {
	Clear(ctx context.Context, orderID int64) error
}

// EventPublisher 订单状态事件发布接口
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, orderID int64, status string) error
}

// Result 对账结果
type Result struct {
	PaymentReturnURL string
}

// ReconcileService 订单状态对账服务
// 回调/轮询上报的目标状态在这里统一落到订单状态机上
type ReconcileService struct {
	orders  *mdorder.OrderModule
	carts   CartClearer
	events  EventPublisher
	gateway *config.GatewayConfig
	baseURL string
	logger  logger.Logger
}

// NewReconcileService 创建对账服务实例
func NewReconcileService(
	orders *mdorder.OrderModule,
	carts CartClearer,
	events EventPublisher,
	gateway *config.GatewayConfig,
	baseURL string,
	log logger.Logger,
) *ReconcileService {
	return &ReconcileService{
		orders:  orders,
		carts:   carts,
		events:  events,
		gateway: gateway,
		baseURL: baseURL,
		logger:  log,
	}
}

// Reconcile 依据上报状态流转订单
// 规则：上报 completed 且订单处于 pending/failed 时，解析为网关配置的支付后状态；
// 其余情况沿用订单当前状态（幂等透传，重复上报不产生变更）
func (s *ReconcileService) Reconcile(ctx context.Context, order *etorder.Order, target string) (*Result, error) {
	resolved := order.Status

	if target == string(etorder.OrderStatusCompleted) &&
		order.HasStatus(etorder.OrderStatusPending, etorder.OrderStatusFailed) {
		resolved = etorder.OrderStatus(s.gateway.ResolvedOrderStatus())

		if !etorder.IsKnownStatus(resolved) {
			s.logger.Errorf(ctx, "invalid order status: %s", resolved)
			return nil, errorx.New(errorx.KindValidation, "Invalid order status")
		}
	}

	if order.Status != resolved {
		if err := s.orders.TransitionStatus(ctx, order, resolved, statusUpdatedNote); err != nil {
			s.logger.Errorf(ctx, "failed to update order status: order_id=%d, error=%v", order.ID, err)
			return nil, errorx.Wrapf(errorx.KindPersistence, err, "Failed to update order status")
		}

		// 状态事件发给下游，失败只记录日志
		if err := s.events.PublishStatusChanged(ctx, order.ID, string(resolved)); err != nil {
			s.logger.Warnf(ctx, "publish status event failed: order_id=%d, error=%v", order.ID, err)
		}
	}

	// 清理购物车，尽力而为
	if err := s.carts.Clear(ctx, order.ID); err != nil {
		s.logger.Warnf(ctx, "clear cart failed: order_id=%d, error=%v", order.ID, err)
	}

	s.logger.Infof(ctx, "order status updated successfully: %d", order.ID)

	return &Result{PaymentReturnURL: order.ReceivedURL(s.baseURL)}, nil
}
