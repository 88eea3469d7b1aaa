package response

import (
	"errors"
	"net/http"
)

// 按 HTTP 状态归类的错误，调用方通过 errors.Is 判断
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTooManyRequests = errors.New("too many requests")
	ErrServerInternal  = errors.New("server error")
	ErrUnexpected      = errors.New("unexpected status")
)

// classify 将非 2xx 状态码映射为对应的错误类别
func classify(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusTooManyRequests:
		return ErrTooManyRequests
	case status >= 500:
		return ErrServerInternal
	case status >= 400:
		return ErrBadRequest
	default:
		return ErrUnexpected
	}
}

// IsSuccess 判断状态码是否为 2xx
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// IsAuthClass 判断状态码是否属于未认证/无权限
func IsAuthClass(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
