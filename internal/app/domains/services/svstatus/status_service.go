package svstatus

import (
	"context"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/entity/etorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/modules/mdorder"
)

// 轮询接口的三个线上状态值
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

// StatusResult 支付状态查询结果
type StatusResult struct {
	Status      string
	RedirectURL string // 终态时附带的跳转地址
}

// StatusService 支付状态查询服务
// 弹窗打开期间浏览器轮询用，只查本地订单，不触发任何外部调用
type StatusService struct {
	orders  *mdorder.OrderModule
	baseURL string
}

// NewStatusService 创建状态查询服务实例
func NewStatusService(orders *mdorder.OrderModule, baseURL string) *StatusService {
	return &StatusService{orders: orders, baseURL: baseURL}
}

// CheckPaymentStatus 查询订单支付状态
// 已支付 → success，失败 → failed，其余一律 pending
func (s *StatusService) CheckPaymentStatus(ctx context.Context, orderID int64) (*StatusResult, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	returnURL := order.ReceivedURL(s.baseURL)

	if order.IsPaid() {
		return &StatusResult{Status: StatusSuccess, RedirectURL: returnURL}, nil
	}
	if order.HasStatus(etorder.OrderStatusFailed) {
		return &StatusResult{Status: StatusFailed, RedirectURL: returnURL}, nil
	}

	return &StatusResult{Status: StatusPending}, nil
}
