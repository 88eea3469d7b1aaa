package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"postify/internal/pkg/middleware"
	"postify/internal/pkg/session"
	"postify/pkg/logger"
	"postify/pkg/metrics"
	"postify/pkg/response"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultRefreshPath 后端的令牌刷新接口
const DefaultRefreshPath = "user/token/refresh/"

type options struct {
	base           http.RoundTripper
	jar            http.CookieJar
	timeout        time.Duration
	logger         *zap.Logger
	metrics        *metrics.MetricsCollector
	limiter        *rate.Limiter
	authFailure    AuthFailureFunc
	refresher      session.RefreshFunc
	refreshPath    string
	refreshTimeout time.Duration
}

// Option 配置 Client
type Option func(*options)

// WithBaseTransport 替换最内层的 RoundTripper
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithJar 使用外部提供的 Cookie 容器（会话凭证随 Cookie 隐式携带）
func WithJar(jar http.CookieJar) Option {
	return func(o *options) { o.jar = jar }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.MetricsCollector) Option {
	return func(o *options) { o.metrics = m }
}

func WithLimiter(l *rate.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

// WithAuthFailure 替换认证失败判定规则
func WithAuthFailure(fn AuthFailureFunc) Option {
	return func(o *options) { o.authFailure = fn }
}

// WithRefresher 替换会话刷新操作，默认 POST refresh_path
func WithRefresher(fn session.RefreshFunc) Option {
	return func(o *options) { o.refresher = fn }
}

func WithRefreshPath(p string) Option {
	return func(o *options) { o.refreshPath = p }
}

func WithRefreshTimeout(d time.Duration) Option {
	return func(o *options) { o.refreshTimeout = d }
}

// Client 基于 net/http 的 Sender 实现
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	guard       *session.Guard
	authFailure AuthFailureFunc
	refreshPath string
	logger      *zap.Logger
}

// NewClient 创建客户端，baseURL 形如 http://localhost:8000/api
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute, got %q", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/"

	o := options{
		timeout:     15 * time.Second,
		authFailure: TokenAuthFailure,
		refreshPath: DefaultRefreshPath,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logger.OrNop(o.logger)
	if o.jar == nil {
		o.jar, _ = cookiejar.New(nil)
	}

	c := &Client{
		baseURL:     u,
		authFailure: o.authFailure,
		refreshPath: o.refreshPath,
		logger:      o.logger,
		http: &http.Client{
			Jar:     o.jar,
			Timeout: o.timeout,
			Transport: middleware.Chain(o.base,
				middleware.TraceMiddleware(),
				middleware.RateLimitMiddleware(o.limiter),
				middleware.LoggerMiddleware(o.logger),
				middleware.MetricsMiddleware(o.metrics),
			),
		},
	}

	refresher := o.refresher
	if refresher == nil {
		refresher = c.refreshSession
	}
	c.guard = session.NewGuard(refresher,
		session.WithLogger(o.logger),
		session.WithMetrics(o.metrics),
		session.WithTimeout(o.refreshTimeout),
	)
	return c, nil
}

// BaseURL API 根地址，以 / 结尾
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Jar 会话 Cookie 容器
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// Guard 会话刷新守卫
func (c *Client) Guard() *session.Guard {
	return c.guard
}

// Send 发送请求；非 2xx 响应返回 *response.APIError
// 认证失败且未重放过的请求经守卫刷新会话后重放一次
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.do(ctx, req)
	if err == nil {
		return resp, nil
	}
	if req.retried || resp == nil || !c.authFailure(resp) {
		return nil, err
	}

	var replayed *Response
	gerr := c.guard.Do(ctx, func(ctx context.Context) error {
		var rerr error
		replayed, rerr = c.Send(ctx, req.forRetry())
		return rerr
	})
	if gerr != nil {
		return nil, gerr
	}
	return replayed, nil
}

// refreshSession 直接调用刷新接口，不经过守卫
func (c *Client) refreshSession(ctx context.Context) error {
	_, err := c.do(ctx, Post(c.refreshPath, struct{}{}))
	return err
}

// do 发送一次请求；返回 APIError 时同时返回已读取的响应
func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}
	if !response.IsSuccess(resp.StatusCode) {
		return out, response.NewAPIError(resp.StatusCode, body)
	}
	return out, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	target, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	var u *url.URL
	var err error
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		u, err = url.Parse(path)
	} else {
		u, err = url.Parse(c.baseURL.String() + strings.TrimPrefix(path, "/"))
	}
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}

	if len(query) > 0 {
		q := u.Query()
		for k, vals := range query {
			for _, v := range vals {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
