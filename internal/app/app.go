// Package app 组装客户端：配置 -> 日志/指标 -> 传输层 -> 仓储 -> 服务。
// 每个 App 独立持有自己的状态，多个 App 之间不共享任何东西。
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	adminrepo "postify/internal/domain/admin/repository"
	adminservice "postify/internal/domain/admin/service"
	blogrepo "postify/internal/domain/blog/repository"
	blogservice "postify/internal/domain/blog/service"
	userrepo "postify/internal/domain/user/repository"
	userservice "postify/internal/domain/user/service"
	"postify/internal/pkg/config"
	"postify/internal/pkg/cookiestore"
	"postify/internal/pkg/middleware"
	"postify/internal/pkg/transport"
	"postify/internal/pkg/uploader"
	"postify/pkg/cache"
	"postify/pkg/database"
	"postify/pkg/logger"
	"postify/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSessionTTL Redis 中会话 Cookie 的保存时长，与后端刷新令牌有效期一致
const RedisSessionTTL = 7 * 24 * time.Hour

type options struct {
	store      cookiestore.Store
	base       http.RoundTripper
	uploadHTTP *http.Client
	registry   *prometheus.Registry
	orphanHook blogservice.OrphanHook
}

// Option 配置 App
type Option func(*options)

// WithStore 指定会话 Cookie 的存储，忽略配置中的 session.store
func WithStore(s cookiestore.Store) Option {
	return func(o *options) { o.store = s }
}

// WithBaseTransport 替换 API 请求最内层的 RoundTripper
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithUploadClient 上传图片使用的 http.Client
func WithUploadClient(c *http.Client) Option {
	return func(o *options) { o.uploadHTTP = c }
}

func WithRegistry(r *prometheus.Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithOrphanHook(h blogservice.OrphanHook) Option {
	return func(o *options) { o.orphanHook = h }
}

// App 客户端实例
type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.MetricsCollector

	Client   *transport.Client
	Jar      *cookiestore.Jar
	Users    userservice.UserService
	Blogs    blogservice.BlogService
	Admin    adminservice.AdminService
	Uploader *uploader.CloudinaryUploader

	rdb *redis.Client
}

// New 按配置创建 App；会话 Cookie 从 store 中恢复
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	log = logger.OrNop(log)
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}

	a := &App{
		Config:   cfg,
		Logger:   log,
		Registry: o.registry,
		Metrics:  metrics.NewMetricsCollector(o.registry),
	}

	store := o.store
	if store == nil {
		var err error
		if store, err = a.openStore(ctx); err != nil {
			return nil, err
		}
	}

	jar, err := cookiestore.NewJar(ctx, store, cfg.API.BaseURL, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Jar = jar

	client, err := transport.NewClient(cfg.API.BaseURL,
		transport.WithBaseTransport(o.base),
		transport.WithJar(jar),
		transport.WithTimeout(cfg.API.Timeout),
		transport.WithLogger(log.Named("transport")),
		transport.WithMetrics(a.Metrics),
		transport.WithLimiter(middleware.NewLimiter(cfg.API.RateLimit, cfg.API.Burst)),
		transport.WithRefreshPath(cfg.API.RefreshPath),
		transport.WithRefreshTimeout(cfg.API.RefreshTimeout),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Client = client

	blogOpts := []blogservice.Option{
		blogservice.WithLogger(log.Named("blog")),
		blogservice.WithMetrics(a.Metrics),
		blogservice.WithBaseURL(client.BaseURL()),
	}
	if o.orphanHook != nil {
		blogOpts = append(blogOpts, blogservice.WithOrphanHook(o.orphanHook))
	}
	a.Blogs = blogservice.NewBlogService(client, blogrepo.NewBlogRepository(), blogOpts...)
	a.Admin = adminservice.NewAdminService(client, adminrepo.NewAdminRepository(), log.Named("admin"), client.BaseURL())
	a.Uploader = uploader.NewCloudinaryUploader(client, uploader.Config{
		UploadURL:   cfg.Cloudinary.UploadURL,
		MaxFileSize: cfg.Cloudinary.MaxFileSize,
		Concurrency: cfg.Cloudinary.Concurrency,
	}, o.uploadHTTP, log.Named("uploader"))

	// 退出登录后清空所有本地状态
	a.Users = userservice.NewUserService(client, userrepo.NewSessionRepository(), log.Named("user"),
		a.Blogs.Repository().Reset,
		a.Admin.Reset,
		a.clearCookies,
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (cookiestore.Store, error) {
	s := a.Config.Session
	switch s.Store {
	case config.SessionStoreMemory:
		return cookiestore.NewMemoryStore(), nil
	case config.SessionStoreFile:
		return cookiestore.NewFileStore(s.Path, s.Profile), nil
	case config.SessionStoreRedis:
		rdb, err := database.NewRedis(ctx, a.Config.Redis)
		if err != nil {
			return nil, err
		}
		a.rdb = rdb
		return cookiestore.NewRedisStore(cache.NewRedisCache(rdb, "postify:"), s.Profile, RedisSessionTTL), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", s.Store)
	}
}

func (a *App) clearCookies() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Jar.Clear(ctx); err != nil {
		a.Logger.Warn("clear session cookies failed", zap.Error(err))
	}
}

// Close 释放外部连接
func (a *App) Close() error {
	if a.rdb != nil {
		return a.rdb.Close()
	}
	return nil
}
