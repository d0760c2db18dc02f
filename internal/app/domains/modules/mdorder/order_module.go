package mdorder

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/entity/etorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/repo/rporder"
)

// OrderModule 订单模块（数据编排层）
type OrderModule struct {
	orderRepo rporder.OrderRepository
}

// NewOrderModule 创建订单模块
func NewOrderModule(orderRepo rporder.OrderRepository) *OrderModule {
	return &OrderModule{orderRepo: orderRepo}
}

// GetOrder 查询订单
func (m *OrderModule) GetOrder(ctx context.Context, orderID int64) (*etorder.Order, error) {
	return m.orderRepo.GetByID(ctx, orderID)
}

// CreateOrder 创建订单，未指定订单密钥时自动生成
func (m *OrderModule) CreateOrder(ctx context.Context, order *etorder.Order) error {
	if order.OrderKey == "" {
		order.OrderKey = newOrderKey()
	}
	return m.orderRepo.Create(ctx, order)
}

// newOrderKey 生成订单密钥，附在回执地址上防止越权查看
func newOrderKey() string {
	return "wc_order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// TransitionStatus 流转订单状态并追加备注
func (m *OrderModule) TransitionStatus(ctx context.Context, order *etorder.Order, status etorder.OrderStatus, noteContent string) error {
	if err := m.orderRepo.UpdateStatus(ctx, order.ID, status); err != nil {
		return err
	}
	order.SetStatus(status)

	note := &etorder.Note{Content: noteContent, CustomerVisible: false}
	if err := m.orderRepo.AddNote(ctx, order.ID, note); err != nil {
		return err
	}
	order.Notes = append(order.Notes, note)
	return nil
}

// MarkOrderMeta 落库支付元数据（测试标记、来源标记）
func (m *OrderModule) MarkOrderMeta(ctx context.Context, order *etorder.Order) error {
	return m.orderRepo.UpdateMeta(ctx, order.ID, order.IsTestOrder, order.OriginTag)
}

// AddOrderNote 追加订单备注
func (m *OrderModule) AddOrderNote(ctx context.Context, order *etorder.Order, content string, customerVisible bool) error {
	note := &etorder.Note{Content: content, CustomerVisible: customerVisible}
	if err := m.orderRepo.AddNote(ctx, order.ID, note); err != nil {
		return err
	}
	order.Notes = append(order.Notes, note)
	return nil
}
