package rporder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/entity/etorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/errorx"
)

// OrderRepositoryImpl 订单仓储实现（MySQL）
type OrderRepositoryImpl struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &OrderRepositoryImpl{db: db}
}

// orderPO 订单持久化模型
type orderPO struct {
	ID       int64          `gorm:"column:id;primaryKey"`
	OrderKey string         `gorm:"column:order_key;type:varchar(64);not null"`
	Total    float64        `gorm:"column:total;not null"`
	Currency string         `gorm:"column:currency;type:varchar(8);not null;default:'USD'"`
	Billing  datatypes.JSON `gorm:"column:billing;type:json"`

	Status      string `gorm:"column:status;type:varchar(16);not null;default:'pending';index:idx_status"`
	IsTestOrder bool   `gorm:"column:is_test_order;not null;default:false"`
	OriginTag   string `gorm:"column:origin_tag;type:varchar(64)"`

	CreatedAt time.Time `gorm:"column:created_at;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName 指定表名
func (orderPO) TableName() string {
	return "orders"
}

// orderNotePO 订单备注持久化模型
type orderNotePO struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID         int64     `gorm:"column:order_id;not null;index:idx_order_id"`
	Content         string    `gorm:"column:content;type:text;not null"`
	CustomerVisible bool      `gorm:"column:customer_visible;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;not null"`
}

// TableName 指定表名
func (orderNotePO) TableName() string {
	return "order_notes"
}

// Create 创建订单，将领域对象转换为 GORM 模型后存储
func (r *OrderRepositoryImpl) Create(ctx context.Context, order *etorder.Order) error {
	po, err := toOrderPO(order)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("create order failed: %w", err)
	}
	return nil
}

// GetByID 根据ID查询订单，附带全部备注
func (r *OrderRepositoryImpl) GetByID(ctx context.Context, orderID int64) (*etorder.Order, error) {
	var po orderPO
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&po).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorx.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order failed: %w", err)
	}

	var notePOs []orderNotePO
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&notePOs).Error; err != nil {
		return nil, fmt.Errorf("query order notes failed: %w", err)
	}

	return toOrderEntity(&po, notePOs)
}

// UpdateStatus 更新订单状态
func (r *OrderRepositoryImpl) UpdateStatus(ctx context.Context, orderID int64, status etorder.OrderStatus) error {
	result := r.db.WithContext(ctx).Model(&orderPO{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     string(status),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("update order status failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errorx.ErrOrderNotFound
	}
	return nil
}

// UpdateMeta 更新支付相关元数据
func (r *OrderRepositoryImpl) UpdateMeta(ctx context.Context, orderID int64, isTestOrder bool, originTag string) error {
	result := r.db.WithContext(ctx).Model(&orderPO{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"is_test_order": isTestOrder,
			"origin_tag":    originTag,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("update order meta failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errorx.ErrOrderNotFound
	}
	return nil
}

// AddNote 追加订单备注
func (r *OrderRepositoryImpl) AddNote(ctx context.Context, orderID int64, note *etorder.Note) error {
	po := &orderNotePO{
		OrderID:         orderID,
		Content:         note.Content,
		CustomerVisible: note.CustomerVisible,
		CreatedAt:       note.CreatedAt,
	}
	if po.CreatedAt.IsZero() {
		po.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(po).Error; err != nil {
		return fmt.Errorf("add order note failed: %w", err)
	}
	return nil
}

func toOrderPO(order *etorder.Order) (*orderPO, error) {
	billingJSON, err := json.Marshal(order.Billing)
	if err != nil {
		return nil, fmt.Errorf("marshal billing failed: %w", err)
	}

	return &orderPO{
		ID:          order.ID,
		OrderKey:    order.OrderKey,
		Total:       order.Total,
		Currency:    order.Currency,
		Billing:     datatypes.JSON(billingJSON),
		Status:      string(order.Status),
		IsTestOrder: order.IsTestOrder,
		OriginTag:   order.OriginTag,
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}, nil
}

func toOrderEntity(po *orderPO, notePOs []orderNotePO) (*etorder.Order, error) {
	var billing etorder.Billing
	if len(po.Billing) > 0 {
		if err := json.Unmarshal(po.Billing, &billing); err != nil {
			return nil, fmt.Errorf("unmarshal billing failed: %w", err)
		}
	}

	notes := make([]*etorder.Note, 0, len(notePOs))
	for _, np := range notePOs {
		notes = append(notes, &etorder.Note{
			ID:              np.ID,
			Content:         np.Content,
			CustomerVisible: np.CustomerVisible,
			CreatedAt:       np.CreatedAt,
		})
	}

	return &etorder.Order{
		ID:          po.ID,
		OrderKey:    po.OrderKey,
		Total:       po.Total,
		Currency:    po.Currency,
		Billing:     &billing,
		Status:      etorder.OrderStatus(po.Status),
		IsTestOrder: po.IsTestOrder,
		OriginTag:   po.OriginTag,
		Notes:       notes,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
	}, nil
}
