package cookiestore

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"sync"
	"time"

	"postify/pkg/logger"

	"go.uber.org/zap"
)

// Jar 包装 cookiejar，每次服务端下发 Cookie 后写回 Store
type Jar struct {
	mu     sync.Mutex
	inner  *cookiejar.Jar
	store  Store
	origin *url.URL
	known  map[string]*http.Cookie
	logger *zap.Logger
}

// NewJar 创建 Jar 并从 store 恢复上次保存的 Cookie，origin 为 API 根地址
func NewJar(ctx context.Context, store Store, origin string, log *zap.Logger) (*Jar, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j := &Jar{
		inner:  inner,
		store:  store,
		origin: u,
		known:  map[string]*http.Cookie{},
		logger: logger.OrNop(log),
	}

	saved, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session cookies: %w", err)
	}
	now := time.Now()
	for _, c := range saved {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		j.known[cookieKey(c)] = c
	}
	if len(j.known) > 0 {
		j.inner.SetCookies(u, j.snapshot())
		j.logger.Debug("session cookies restored", zap.Int("count", len(j.known)))
	}
	return j, nil
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	inner := j.inner
	j.mu.Unlock()
	return inner.Cookies(u)
}

// SetCookies 写入内存 Jar 后立即持久化；持久化失败只记日志，不影响本次请求
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	j.inner.SetCookies(u, cookies)

	now := time.Now()
	for _, c := range cookies {
		cp := *c
		if cp.Path == "" || cp.Path[0] != '/' {
			cp.Path = defaultPath(u.Path)
		}
		if cp.MaxAge > 0 {
			cp.Expires = now.Add(time.Duration(cp.MaxAge) * time.Second)
		}
		key := cookieKey(&cp)
		if cp.MaxAge < 0 || (!cp.Expires.IsZero() && cp.Expires.Before(now)) {
			delete(j.known, key)
			continue
		}
		cp.MaxAge = 0
		j.known[key] = &cp
	}
	snapshot := j.snapshot()
	j.mu.Unlock()

	if err := j.store.Save(context.Background(), snapshot); err != nil {
		j.logger.Warn("persist session cookies failed", zap.Error(err))
	}
}

// Clear 清空内存和持久化的 Cookie
func (j *Jar) Clear(ctx context.Context) error {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	j.mu.Lock()
	j.inner = inner
	j.known = map[string]*http.Cookie{}
	j.mu.Unlock()
	return j.store.Clear(ctx)
}

// Len 当前保存的 Cookie 数
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.known)
}

func (j *Jar) snapshot() []*http.Cookie {
	out := make([]*http.Cookie, 0, len(j.known))
	for _, c := range j.known {
		cp := *c
		out = append(out, &cp)
	}
	return out
}

func cookieKey(c *http.Cookie) string {
	return c.Domain + ";" + c.Path + ";" + c.Name
}

// defaultPath RFC 6265 5.1.4
func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	dir := path.Dir(p)
	if p[len(p)-1] == '/' {
		dir = p[:len(p)-1]
	}
	if dir == "" || dir == "." {
		return "/"
	}
	return dir
}
