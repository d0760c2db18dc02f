package etorder

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// 错误定义
var (
	ErrInvalidOrderID = errors.New("order ID must be positive")
	ErrInvalidTotal   = errors.New("order total cannot be negative")
	ErrEmptyNote      = errors.New("order note cannot be empty")
)

// Order 订单聚合根（领域对象）
// 订单记录归宿主商城系统所有，网关只读写其中与支付相关的字段
type Order struct {
	ID       int64       // 订单ID
	OrderKey string      // 订单密钥，拼入回调地址用于校验
	Total    float64     // 订单金额
	Currency string      // 币种
	Billing  *Billing    // 账单信息
	Status   OrderStatus // 订单状态

	IsTestOrder bool   // 沙箱下单标记
	OriginTag   string // 订单来源标记

	Notes []*Note // 订单备注（只追加）

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// KnownStatuses 宿主系统的订单状态全集
func KnownStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusProcessing,
		OrderStatusOnHold,
		OrderStatusCompleted,
		OrderStatusCancelled,
		OrderStatusRefunded,
		OrderStatusFailed,
	}
}

// IsKnownStatus 目标状态是否在宿主状态表内
func IsKnownStatus(s OrderStatus) bool {
	for _, known := range KnownStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// Billing 账单信息（值对象）
type Billing struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address1  string
	Address2  string
	City      string
	State     string
	Postcode  string
	Country   string
}

// ContactRef 账单联系方式，优先邮箱，缺失时退回手机号
func (b *Billing) ContactRef() string {
	if b.Email != "" {
		return b.Email
	}
	return b.Phone
}

// Note 订单备注
type Note struct {
	ID              int64
	Content         string
	CustomerVisible bool // 是否对买家可见
	CreatedAt       time.Time
}

// NewOrder 创建订单（工厂方法）
func NewOrder(id int64, orderKey string, total float64, billing *Billing) (*Order, error) {
	if id <= 0 {
		return nil, ErrInvalidOrderID
	}
	if total < 0 {
		return nil, ErrInvalidTotal
	}
	if billing == nil {
		billing = &Billing{}
	}

	return &Order{
		ID:        id,
		OrderKey:  orderKey,
		Total:     total,
		Currency:  "USD",
		Billing:   billing,
		Status:    OrderStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// IsPaid 订单是否已支付
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusProcessing || o.Status == OrderStatusCompleted
}

// HasStatus 订单是否处于指定状态
func (o *Order) HasStatus(statuses ...OrderStatus) bool {
	for _, s := range statuses {
		if o.Status == s {
			return true
		}
	}
	return false
}

// HasNote 订单备注中是否已存在同样内容（去除首尾空白后精确匹配）
func (o *Order) HasNote(content string) bool {
	want := strings.TrimSpace(content)
	for _, note := range o.Notes {
		if strings.TrimSpace(note.Content) == want {
			return true
		}
	}
	return false
}

// AddNote 追加订单备注（领域行为）
func (o *Order) AddNote(content string, customerVisible bool) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyNote
	}
	o.Notes = append(o.Notes, &Note{
		Content:         content,
		CustomerVisible: customerVisible,
		CreatedAt:       time.Now(),
	})
	o.UpdatedAt = time.Now()
	return nil
}

// SetStatus 更新订单状态（领域行为）
func (o *Order) SetStatus(status OrderStatus) {
	o.Status = status
	o.UpdatedAt = time.Now()
}

// MarkAsTest 标记为沙箱测试订单
func (o *Order) MarkAsTest() {
	o.IsTestOrder = true
	o.UpdatedAt = time.Now()
}

// ReceivedURL 支付完成后的落地页地址
func (o *Order) ReceivedURL(baseURL string) string {
	return fmt.Sprintf("%s/order-received/%d/?key=%s", strings.TrimRight(baseURL, "/"), o.ID, o.OrderKey)
}

// FormattedTotal 金额固定两位小数的字符串表示
func (o *Order) FormattedTotal() string {
	return fmt.Sprintf("%.2f", o.Total)
}
