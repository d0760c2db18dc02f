package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/config"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/modules/mdorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/repo/rporder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/services/svpayment"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/services/svreconcile"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/services/svstatus"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/infra/mq/lmstfy"
	redisinfra "github.com/simpleso-io/simpleso-payment-gateway/internal/app/infra/persistence/redis"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/infra/processor"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/nonce"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/server/handlers/ajax"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/server/handlers/checkout"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/server/handlers/webhook"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/server/routers"
)

// App 应用实例
type App struct {
	Engine *gin.Engine
	Logger logger.Logger
}

// statusEventPublisher 把 Lmstfy 发布器适配到对账服务的事件接口上
type statusEventPublisher struct {
	pub *lmstfy.Publisher
}

func (p statusEventPublisher) PublishStatusChanged(ctx context.Context, orderID int64, status string) error {
	return p.pub.PublishStatusChanged(&lmstfy.OrderStatusEvent{
		OrderID: orderID,
		Status:  status,
		Origin:  "simpleso_payment_gateway",
	})
}

// InitializeApp 组装全部依赖
// 显式构造一次并逐层传引用，不做任何全局查找
func InitializeApp(cfg *config.Config) (*App, func(), error) {
	log, err := logger.NewZapLogger(cfg.App.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger failed: %w", err)
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("init mysql failed: %w", err)
	}

	cartStore, err := redisinfra.NewCartStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("init redis failed: %w", err)
	}

	publisher, err := lmstfy.NewPublisher(
		cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token, cfg.Lmstfy.Queue)
	if err != nil {
		return nil, nil, fmt.Errorf("init lmstfy failed: %w", err)
	}

	orderRepo := rporder.NewOrderRepository(db)
	orders := mdorder.NewOrderModule(orderRepo)

	processorClient := processor.NewClient(cfg.Processor.BaseURL(), cfg.Processor.Timeout, log)
	nonces := nonce.NewMinter(cfg.Security.NonceSecret)

	payments := svpayment.NewPaymentService(
		orders, processorClient, &cfg.Gateway, cfg.Server.BaseURL, nonces, log)
	reconcile := svreconcile.NewReconcileService(
		orders, cartStore, statusEventPublisher{pub: publisher}, &cfg.Gateway, cfg.Server.BaseURL, log)
	status := svstatus.NewStatusService(orders, cfg.Server.BaseURL)

	checkoutHandler := checkout.NewCheckoutHandler(payments, &cfg.Gateway, nonces, log)
	webhookHandler := webhook.NewWebhookHandler(orders, reconcile, &cfg.Gateway, log)
	ajaxHandler := ajax.NewAjaxHandler(status, nonces, log)

	engine := routers.SetupRoutes(checkoutHandler, webhookHandler, ajaxHandler, log)

	cleanup := func() {
		_ = cartStore.Close()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		_ = log.Sync()
	}

	return &App{Engine: engine, Logger: log}, cleanup, nil
}
