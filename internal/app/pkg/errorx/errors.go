package errorx

import (
	"errors"
	"fmt"
	"net/http"
)

// 定义业务错误
var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidOrderID     = errors.New("invalid order ID")
	ErrInvalidOrderStatus = errors.New("invalid order status")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrGatewayDisabled    = errors.New("payment gateway is currently unavailable")
)

// Kind 错误类别（对应支付网关错误分类）
type Kind int

const (
	KindAuth Kind = iota + 1
	KindValidation
	KindNotFound
	KindUpstream
	KindLimitExceeded
	KindPersistence
)

// GatewayError 网关错误结构，携带错误类别和可展示信息
type GatewayError struct {
	Kind    Kind
	Message string
	Err     error // 底层错误（仅用于日志，不返回给调用方）
}

// Error 实现 error 接口
func (e *GatewayError) Error() string {
	return e.Message
}

// Unwrap 支持 errors.Is / errors.As
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// HTTPStatus 错误类别到 HTTP 状态码的映射
func (e *GatewayError) HTTPStatus() int {
	switch e.Kind {
	case KindAuth:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream, KindLimitExceeded:
		return http.StatusBadGateway
	case KindPersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// New 创建指定类别的网关错误
func New(kind Kind, message string) *GatewayError {
	return &GatewayError{Kind: kind, Message: message}
}

// Wrapf 包装底层错误，保留类别和展示信息
func Wrapf(kind Kind, err error, format string, args ...interface{}) *GatewayError {
	return &GatewayError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// KindOf 提取错误类别，非 GatewayError 默认按持久化错误处理
func KindOf(err error) Kind {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindPersistence
}
