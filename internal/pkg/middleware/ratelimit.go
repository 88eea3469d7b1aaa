package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// NewLimiter 创建客户端限流器
// r: 每秒允许的请求数 (QPS)，0 表示不限流并返回 nil
// b: 桶的大小 (Burst)
func NewLimiter(r float64, b int) *rate.Limiter {
	if r <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(r), b)
}

// RateLimitMiddleware 出站限流：令牌不足时等待，而不是直接拒绝
// limiter 为 nil 时直接放行
func RateLimitMiddleware(limiter *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if limiter == nil {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(req)
		})
	}
}
