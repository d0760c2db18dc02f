// Package rpordertest 提供测试用的内存订单仓储
package rpordertest

import (
	"context"
	"sync"
	"time"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/entity/etorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/errorx"
)

// MemoryRepo 内存订单仓储
type MemoryRepo struct {
	mu     sync.Mutex
	orders map[int64]*etorder.Order

	// GetCalls 记录查询次数，用于断言某些分支未触达存储
	GetCalls int

	// FailUpdateStatus 注入状态更新失败
	FailUpdateStatus error
}

// NewMemoryRepo 创建内存仓储
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{orders: make(map[int64]*etorder.Order)}
}

// Seed 预置订单
func (r *MemoryRepo) Seed(order *etorder.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = clone(order)
}

// Stored 读取仓储内的订单快照（断言持久化结果用）
func (r *MemoryRepo) Stored(orderID int64) *etorder.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.orders[orderID])
}

// Create 创建订单
func (r *MemoryRepo) Create(ctx context.Context, order *etorder.Order) error {
	r.Seed(order)
	return nil
}

// GetByID 根据ID查询订单
// 跟真实仓储一样返回独立副本，调用方的内存修改不会直接落库
func (r *MemoryRepo) GetByID(ctx context.Context, orderID int64) (*etorder.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.GetCalls++

	order, ok := r.orders[orderID]
	if !ok {
		return nil, errorx.ErrOrderNotFound
	}
	return clone(order), nil
}

// UpdateStatus 更新订单状态
func (r *MemoryRepo) UpdateStatus(ctx context.Context, orderID int64, status etorder.OrderStatus) error {
	if r.FailUpdateStatus != nil {
		return r.FailUpdateStatus
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return errorx.ErrOrderNotFound
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	return nil
}

// UpdateMeta 更新支付元数据
func (r *MemoryRepo) UpdateMeta(ctx context.Context, orderID int64, isTestOrder bool, originTag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return errorx.ErrOrderNotFound
	}
	order.IsTestOrder = isTestOrder
	order.OriginTag = originTag
	return nil
}

// AddNote 追加订单备注
func (r *MemoryRepo) AddNote(ctx context.Context, orderID int64, note *etorder.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	if !ok {
		return errorx.ErrOrderNotFound
	}
	n := *note
	order.Notes = append(order.Notes, &n)
	return nil
}

func clone(order *etorder.Order) *etorder.Order {
	if order == nil {
		return nil
	}

	copied := *order
	if order.Billing != nil {
		b := *order.Billing
		copied.Billing = &b
	}
	copied.Notes = make([]*etorder.Note, 0, len(order.Notes))
	for _, note := range order.Notes {
		n := *note
		copied.Notes = append(copied.Notes, &n)
	}
	return &copied
}
