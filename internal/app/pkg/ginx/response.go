package ginx

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// WebhookResponse 回调接口成功响应
type WebhookResponse struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	PaymentReturnURL string `json:"payment_return_url,omitempty"`
}

// WebhookOK 回调成功（200）
func WebhookOK(c *gin.Context, message, paymentReturnURL string) {
	c.JSON(http.StatusOK, WebhookResponse{
		Success:          true,
		Message:          message,
		PaymentReturnURL: paymentReturnURL,
	})
}

// WebhookError 回调失败，响应 {"error": ...}
func WebhookError(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, gin.H{"error": message})
}

// AjaxEnvelope AJAX 接口统一信封
type AjaxEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// AjaxSuccess AJAX 成功响应
func AjaxSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, AjaxEnvelope{Success: true, Data: data})
}

// AjaxError AJAX 失败响应（HTTP 仍为 200，错误放在信封里）
func AjaxError(c *gin.Context, message string) {
	c.JSON(http.StatusOK, AjaxEnvelope{Success: false, Data: gin.H{"error": message}})
}

// CheckoutSuccess 下单成功响应，浏览器侧编排器读取 result/payment_link/order_id
func CheckoutSuccess(c *gin.Context, paymentLink string, orderID int64) {
	c.JSON(http.StatusOK, gin.H{
		"result":       "success",
		"payment_link": paymentLink,
		"order_id":     orderID,
	})
}

// CheckoutFailure 下单失败响应
func CheckoutFailure(c *gin.Context, messages string) {
	c.JSON(http.StatusOK, gin.H{
		"result":   "failure",
		"messages": messages,
	})
}

// BindingErrorMessage 把表单绑定错误整理成一条可展示信息
func BindingErrorMessage(err error) string {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		parts := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			parts = append(parts, fieldErr.Field()+" is "+messageForTag(fieldErr))
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

func messageForTag(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "required"
	case "gt", "min":
		return "out of range"
	default:
		return "invalid"
	}
}
