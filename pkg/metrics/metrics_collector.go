package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "postify_client"

// MetricsCollector 客户端指标收集器
// 每个实例注册到自己的 Registerer，多个客户端实例互不干扰
// nil 的 *MetricsCollector 上调用任何方法都是空操作
type MetricsCollector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 会话刷新指标
	sessionRefreshTotal *prometheus.CounterVec
	parkedRequests      prometheus.Gauge

	// 评论树指标
	orphanRepliesTotal prometheus.Counter
}

// NewMetricsCollector 创建指标收集器，reg 为 nil 时使用新的独立 Registry
func NewMetricsCollector(reg prometheus.Registerer) *MetricsCollector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &MetricsCollector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of outgoing HTTP requests",
			},
			[]string{"method", "status"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Outgoing HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		sessionRefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_refresh_total",
				Help:      "Session refresh attempts by result",
			},
			[]string{"result"},
		),

		parkedRequests: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "parked_requests",
				Help:      "Requests waiting for an in-flight session refresh",
			},
		),

		orphanRepliesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orphan_replies_total",
				Help:      "Replies whose parent was not loaded and were placed at root level",
			},
		),
	}
}

// RecordHTTPRequest 记录一次请求，status 为 0 表示网络错误
func (mc *MetricsCollector) RecordHTTPRequest(method string, status int, duration time.Duration) {
	if mc == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	mc.httpRequestsTotal.WithLabelValues(method, label).Inc()
	mc.httpRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordSessionRefresh 记录一次刷新结果
func (mc *MetricsCollector) RecordSessionRefresh(err error) {
	if mc == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	mc.sessionRefreshTotal.WithLabelValues(result).Inc()
}

// SetParkedRequests 更新等待刷新的请求数
func (mc *MetricsCollector) SetParkedRequests(n int) {
	if mc == nil {
		return
	}
	mc.parkedRequests.Set(float64(n))
}

// RecordOrphanReply 记录一次父评论缺失导致的降级插入
func (mc *MetricsCollector) RecordOrphanReply() {
	if mc == nil {
		return
	}
	mc.orphanRepliesTotal.Inc()
}
