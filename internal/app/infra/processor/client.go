package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/errorx"
	"github.com/simpleso-io/simpleso-payment-gateway/internal/app/pkg/logger"
)

// 上游接口路径
const (
	dailyLimitPath     = "/api/dailylimit"
	requestPaymentPath = "/api/request-payment"
)

const genericFailureMessage = "Unable to process payment. Please try again."

// PaymentRequest 单次下单构造的支付请求，调用完即丢弃
// 私钥只随服务端到服务端的请求体传输，绝不下发给浏览器
type PaymentRequest struct {
	APISecret    string
	APIPublicKey string

	FirstName  string
	LastName   string
	RequestFor string // 账单邮箱，缺失时为手机号
	Amount     string // 固定两位小数

	RedirectURL  string
	RedirectTime int
	IPAddress    string
	Source       string
	MetaData     string // JSON：来源系统 + 订单ID
	Remarks      string

	BillingAddress1 string
	BillingAddress2 string
	BillingCity     string
	BillingPostcode string
	BillingCountry  string
	BillingState    string

	IsSandbox bool
}

// formValues 转换为 url-encoded 请求体
func (r *PaymentRequest) formValues() url.Values {
	v := url.Values{}
	v.Set("api_secret", r.APISecret)
	v.Set("api_public_key", r.APIPublicKey)
	v.Set("first_name", r.FirstName)
	v.Set("last_name", r.LastName)
	v.Set("request_for", r.RequestFor)
	v.Set("amount", r.Amount)
	v.Set("redirect_url", r.RedirectURL)
	v.Set("redirect_time", strconv.Itoa(r.RedirectTime))
	v.Set("ip_address", r.IPAddress)
	v.Set("source", r.Source)
	v.Set("meta_data", r.MetaData)
	v.Set("remarks", r.Remarks)
	v.Set("billing_address_1", r.BillingAddress1)
	v.Set("billing_address_2", r.BillingAddress2)
	v.Set("billing_city", r.BillingCity)
	v.Set("billing_postcode", r.BillingPostcode)
	v.Set("billing_country", r.BillingCountry)
	v.Set("billing_state", r.BillingState)
	v.Set("is_sandbox", strconv.FormatBool(r.IsSandbox))
	return v
}

// PaymentOutcome 支付链接请求的结构化结果
// 上游的任何失败都在客户端边界转换为失败结果，不向下单流程抛出异常
type PaymentOutcome struct {
	Success     bool
	PaymentLink string
	Message     string // 失败时的可展示信息
}

// paymentResponse 上游响应体
type paymentResponse struct {
	Status string `json:"status"`
	Data   struct {
		PaymentLink string `json:"payment_link"`
	} `json:"data"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
	Error   string              `json:"error"`
}

// Client 上游支付处理方客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient 创建上游客户端
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// CheckDailyLimit 下单前的日限额预检
// 上游返回 error 字段视为硬停止；传输失败不拦截下单（与上游历史行为一致）
func (c *Client) CheckDailyLimit(ctx context.Context, req *PaymentRequest) error {
	body, err := c.post(ctx, c.baseURL+dailyLimitPath, req)
	if err != nil {
		c.logger.Warnf(ctx, "daily limit check skipped, transport error: %v", err)
		return nil
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil
	}

	if raw, ok := decoded["error"]; ok {
		c.logger.Errorf(ctx, "daily limit reached: %s", string(raw))
		return errorx.New(errorx.KindLimitExceeded,
			"SimpleSo payment method is currently unavailable. Please contact support for assistance.")
	}

	return nil
}

// RequestPaymentLink 请求托管支付链接
func (c *Client) RequestPaymentLink(ctx context.Context, req *PaymentRequest) *PaymentOutcome {
	target := CleanURL(c.baseURL + requestPaymentPath)

	body, err := c.post(ctx, target, req)
	if err != nil {
		c.logger.Errorf(ctx, "payment request error: %v", err)
		return &PaymentOutcome{Success: false, Message: genericFailureMessage}
	}

	var resp paymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Errorf(ctx, "payment response decode error: %v", err)
		return &PaymentOutcome{Success: false, Message: genericFailureMessage}
	}

	if resp.Status == "success" && resp.Data.PaymentLink != "" {
		return &PaymentOutcome{Success: true, PaymentLink: resp.Data.PaymentLink}
	}

	if resp.Status == "error" {
		message := resp.Message
		if message == "" {
			message = "Unable to retrieve payment link."
		}
		// 字段级校验错误逐条追加到提示信息
		for _, field := range sortedFields(resp.Errors) {
			for _, fieldErr := range resp.Errors[field] {
				message += " : " + fieldErr
			}
		}
		return &PaymentOutcome{Success: false, Message: message}
	}

	// 无法识别的响应形态
	message := resp.Error
	if message == "" {
		message = genericFailureMessage
	}
	return &PaymentOutcome{Success: false, Message: message}
}

// post 发送 url-encoded 请求，公钥走 Bearer 头
func (c *Client) post(ctx context.Context, target string, req *PaymentRequest) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target,
		strings.NewReader(req.formValues().Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "Bearer "+req.APIPublicKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	c.logger.Infof(ctx, "processor response: code=%d, path=%s", resp.StatusCode, httpReq.URL.Path)

	return body, nil
}

func sortedFields(errs map[string][]string) []string {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// CleanURL 规范化 URL：把连续的斜杠折叠为单个，scheme 冒号后的双斜杠除外
// 幂等：对已规范化的 URL 再次调用结果不变
func CleanURL(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); {
		if raw[i] != '/' {
			b.WriteByte(raw[i])
			i++
			continue
		}

		j := i
		for j < len(raw) && raw[j] == '/' {
			j++
		}

		if i > 0 && raw[i-1] == ':' && j-i >= 2 {
			b.WriteString("//")
		} else {
			b.WriteByte('/')
		}
		i = j
	}

	return b.String()
}
