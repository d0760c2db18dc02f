package checkoutflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient 基于 HTTP 的提交与轮询实现
// 对接网关服务的 /checkout 与 /ajax 接口
type HTTPClient struct {
	checkoutURL string
	ajaxURL     string
	security    string // 轮询接口防伪令牌
	httpClient  *http.Client
}

// NewHTTPClient 创建 HTTP 客户端
func NewHTTPClient(checkoutURL, ajaxURL, security string) *HTTPClient {
	return &HTTPClient{
		checkoutURL: checkoutURL,
		ajaxURL:     ajaxURL,
		security:    security,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// checkoutResponse 下单接口响应
type checkoutResponse struct {
	Result      string `json:"result"`
	PaymentLink string `json:"payment_link"`
	OrderID     int64  `json:"order_id"`
	Messages    string `json:"messages"`
}

// Submit 提交结账表单（实现 Submitter 接口）
func (c *HTTPClient) Submit(ctx context.Context, form url.Values) (*SubmitResult, error) {
	body, err := c.postForm(ctx, c.checkoutURL, form)
	if err != nil {
		return nil, err
	}

	var resp checkoutResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode checkout response failed: %w", err)
	}

	return &SubmitResult{
		Success:     resp.Result == "success",
		PaymentLink: resp.PaymentLink,
		OrderID:     resp.OrderID,
		Message:     resp.Messages,
	}, nil
}

// ajaxResponse AJAX 轮询接口响应
type ajaxResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Status      string `json:"status"`
		RedirectURL string `json:"redirect_url"`
		Error       string `json:"error"`
	} `json:"data"`
}

// Check 查询支付状态（实现 StatusPoller 接口）
func (c *HTTPClient) Check(ctx context.Context, orderID int64) (*StatusUpdate, error) {
	form := url.Values{}
	form.Set("action", "check_payment_status")
	form.Set("order_id", fmt.Sprintf("%d", orderID))
	form.Set("security", c.security)

	body, err := c.postForm(ctx, c.ajaxURL, form)
	if err != nil {
		return nil, err
	}

	var resp ajaxResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode status response failed: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("status poll rejected: %s", resp.Data.Error)
	}

	return &StatusUpdate{
		Status:      resp.Data.Status,
		RedirectURL: resp.Data.RedirectURL,
	}, nil
}

func (c *HTTPClient) postForm(ctx context.Context, target string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}
	return body, nil
}
