package rporder

import (
	"context"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/entity/etorder"
)

// OrderRepository 订单仓储接口（只定义，不实现）
// 实现是宿主商城订单库的适配层
type OrderRepository interface {
	// Create 创建订单
	Create(ctx context.Context, order *etorder.Order) error

	// GetByID 根据ID查询订单（含备注）
	GetByID(ctx context.Context, orderID int64) (*etorder.Order, error)

	// UpdateStatus 更新订单状态
	UpdateStatus(ctx context.Context, orderID int64, status etorder.OrderStatus) error

	// UpdateMeta 更新支付相关元数据（测试标记、来源标记）
	UpdateMeta(ctx context.Context, orderID int64, isTestOrder bool, originTag string) error

	// AddNote 追加订单备注
	AddNote(ctx context.Context, orderID int64, note *etorder.Note) error
}
