package webhook

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/config"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/entity/etorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/modules/mdorder"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/repo/rporder/rpordertest"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/domains/services/svreconcile"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
)

type noopCarts struct{}

func (noopCarts) Clear(ctx context.Context, orderID int64) error { return nil }

type noopEvents struct{}

func (noopEvents) PublishStatusChanged(ctx context.Context, orderID int64, status string) error {
	return nil
}

type webhookFixture struct {
	repo   *rpordertest.MemoryRepo
	engine *gin.Engine
}

func newWebhookFixture(t *testing.T, gatewayStatus string) *webhookFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := rpordertest.NewMemoryRepo()
	orders := mdorder.NewOrderModule(repo)
	gateway := &config.GatewayConfig{
		Enabled:     true,
		PublicKey:   "pk_live",
		SecretKey:   "sk_live",
		OrderStatus: gatewayStatus,
	}

	reconcile := svreconcile.NewReconcileService(
		orders, noopCarts{}, noopEvents{}, gateway, "https://shop.example", logger.NewNop())
	handler := NewWebhookHandler(orders, reconcile, gateway, logger.NewNop())

	engine := gin.New()
	engine.POST("/simpleso/v1/data", handler.Handle)

	return &webhookFixture{repo: repo, engine: engine}
}

func (f *webhookFixture) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/simpleso/v1/data", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func validNonce() string {
	return base64.StdEncoding.EncodeToString([]byte("pk_live"))
}

func seedWebhookOrder(t *testing.T, repo *rpordertest.MemoryRepo, status etorder.OrderStatus) {
	t.Helper()

	order, err := etorder.NewOrder(42, "wc_order_abc", 19.99, &etorder.Billing{Email: "jane@example.com"})
	require.NoError(t, err)
	order.Status = status
	repo.Seed(order)
}

func TestWebhookSuccess(t *testing.T) {
	f := newWebhookFixture(t, "processing")
	seedWebhookOrder(t, f.repo, etorder.OrderStatusPending)

	w := f.post(t, fmt.Sprintf(`{"nonce":%q,"order_id":42,"order_status":"completed"}`, validNonce()))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success          bool   `json:"success"`
		Message          string `json:"message"`
		PaymentReturnURL string `json:"payment_return_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Order status updated successfully", resp.Message)
	assert.Contains(t, resp.PaymentReturnURL, "/order-received/42/")

	assert.Equal(t, etorder.OrderStatusProcessing, f.repo.Stored(42).Status)
}

func TestWebhookBadNonce(t *testing.T) {
	f := newWebhookFixture(t, "processing")
	seedWebhookOrder(t, f.repo, etorder.OrderStatusPending)

	bad := base64.StdEncoding.EncodeToString([]byte("pk_wrong"))
	w := f.post(t, fmt.Sprintf(`{"nonce":%q,"order_id":42,"order_status":"completed"}`, bad))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 鉴权失败不触发任何订单变更
	assert.Equal(t, etorder.OrderStatusPending, f.repo.Stored(42).Status)
}

func TestWebhookMalformedNonce(t *testing.T) {
	f := newWebhookFixture(t, "processing")
	seedWebhookOrder(t, f.repo, etorder.OrderStatusPending)

	w := f.post(t, `{"nonce":"%%%not-base64","order_id":42,"order_status":"completed"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookInvalidOrderID(t *testing.T) {
	f := newWebhookFixture(t, "processing")

	for _, orderID := range []string{"0", "-5", `"abc"`} {
		w := f.post(t, fmt.Sprintf(`{"nonce":%q,"order_id":%s,"order_status":"completed"}`, validNonce(), orderID))
		assert.Equal(t, http.StatusBadRequest, w.Code, "order_id=%s", orderID)
	}

	// 参数校验失败不触达订单存储
	assert.Zero(t, f.repo.GetCalls)
}

func TestWebhookOrderNotFound(t *testing.T) {
	f := newWebhookFixture(t, "processing")

	w := f.post(t, fmt.Sprintf(`{"nonce":%q,"order_id":999,"order_status":"completed"}`, validNonce()))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookInvalidConfiguredStatus(t *testing.T) {
	f := newWebhookFixture(t, "shipped")
	seedWebhookOrder(t, f.repo, etorder.OrderStatusPending)

	w := f.post(t, fmt.Sprintf(`{"nonce":%q,"order_id":42,"order_status":"completed"}`, validNonce()))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, etorder.OrderStatusPending, f.repo.Stored(42).Status)
}

func TestWebhookNonCompletedStatusIsNoop(t *testing.T) {
	f := newWebhookFixture(t, "processing")
	seedWebhookOrder(t, f.repo, etorder.OrderStatusProcessing)

	w := f.post(t, fmt.Sprintf(`{"nonce":%q,"order_id":42,"order_status":"completed"}`, validNonce()))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, etorder.OrderStatusProcessing, f.repo.Stored(42).Status)
}
