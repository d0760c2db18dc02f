package lmstfy

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bitleak/lmstfy/client"
)

// OrderStatusEvent 订单状态变更事件，供下游履约/通知服务消费
type OrderStatusEvent struct {
	OrderID   int64  `json:"order_id"`
	Status    string `json:"status"`
	Origin    string `json:"origin"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher 订单事件发布器（Lmstfy 队列）
type Publisher struct {
	cli   *client.LmstfyClient
	queue string
}

// NewPublisher 创建事件发布器
func NewPublisher(host string, port int, namespace, token, queue string) (*Publisher, error) {
	cli := client.NewLmstfyClient(host, port, namespace, token)
	return &Publisher{
		cli:   cli,
		queue: queue,
	}, nil
}

// PublishStatusChanged 发布订单状态变更事件
func (p *Publisher) PublishStatusChanged(event *OrderStatusEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order status event failed: %w", err)
	}

	// ttl 86400 秒，tries 3，不延迟投递
	if _, err := p.cli.Publish(p.queue, data, 86400, 3, 0); err != nil {
		return fmt.Errorf("lmstfy publish failed: %w", err)
	}
	return nil
}
