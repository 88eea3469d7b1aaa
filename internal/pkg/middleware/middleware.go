// Package middleware 提供出站请求的 http.RoundTripper 中间件
package middleware

import "net/http"

// Middleware 包装一个 RoundTripper
type Middleware func(next http.RoundTripper) http.RoundTripper

// RoundTripperFunc 让普通函数实现 http.RoundTripper
type RoundTripperFunc func(req *http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Chain 依次包装 base，第一个中间件位于最外层
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mws) - 1; i >= 0; i-- {
		base = mws[i](base)
	}
	return base
}
