package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader 请求追踪ID头
const RequestIDHeader = "X-Request-ID"

// TraceMiddleware 为出站请求添加追踪ID，调用方已设置时保留原值
func TraceMiddleware() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get(RequestIDHeader) != "" {
				return next.RoundTrip(req)
			}
			// RoundTripper 不能修改传入的请求
			r := req.Clone(req.Context())
			r.Header.Set(RequestIDHeader, uuid.New().String())
			return next.RoundTrip(r)
		})
	}
}
