package middleware

import (
	"net/http"
	"time"

	"postify/pkg/metrics"
)

// MetricsMiddleware 记录出站请求的数量和耗时
func MetricsMiddleware(mc *metrics.MetricsCollector) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		if mc == nil {
			return next
		}
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			status := 0
			if err == nil {
				status = resp.StatusCode
			}
			mc.RecordHTTPRequest(req.Method, status, time.Since(start))
			return resp, err
		})
	}
}
