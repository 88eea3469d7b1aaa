package middleware

import (
	"net/http"
	"time"

	"postify/pkg/logger"

	"go.uber.org/zap"
)

// LoggerMiddleware 每个出站请求记录一条结构化日志
func LoggerMiddleware(log *zap.Logger) Middleware {
	log = logger.OrNop(log)
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)
			cost := time.Since(start)

			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("query", req.URL.RawQuery),
				zap.String("request_id", req.Header.Get(RequestIDHeader)),
				zap.Duration("cost", cost),
			}
			if err != nil {
				log.Warn("request failed", append(fields, zap.Error(err))...)
				return resp, err
			}

			fields = append(fields, zap.Int("status", resp.StatusCode))
			if resp.StatusCode >= 500 {
				log.Warn("request completed", fields...)
			} else {
				log.Debug("request completed", fields...)
			}
			return resp, nil
		})
	}
}
