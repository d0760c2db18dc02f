package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// CartStore 购物车存储（Redis）
// 支付完成后需要清空买家购物车，购物车按订单ID挂在 Redis 上
type CartStore struct {
	client *redis.Client
}

// NewCartStore 创建购物车存储实例
func NewCartStore(addr, password string, db int) (*CartStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &CartStore{client: client}, nil
}

func cartKey(orderID int64) string {
	return fmt.Sprintf("cart:order:%d", orderID)
}

// Clear 清空指定订单关联的购物车
func (s *CartStore) Clear(ctx context.Context, orderID int64) error {
	if err := s.client.Del(ctx, cartKey(orderID)).Err(); err != nil {
		return fmt.Errorf("clear cart failed: %w", err)
	}
	return nil
}

// Close 关闭 Redis 连接
func (s *CartStore) Close() error {
	return s.client.Close()
}
