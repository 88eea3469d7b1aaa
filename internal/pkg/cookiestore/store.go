// Package cookiestore 在多次命令行调用之间保存会话 Cookie。
// 传输层和业务代码从不读取 Cookie 内容，这里只负责原样保存和恢复。
package cookiestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"postify/pkg/cache"
)

// Store 会话 Cookie 的持久化接口
type Store interface {
	Load(ctx context.Context) ([]*http.Cookie, error)
	Save(ctx context.Context, cookies []*http.Cookie) error
	Clear(ctx context.Context) error
}

// storedCookie http.Cookie 的可序列化子集
type storedCookie struct {
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Path     string        `json:"path,omitempty"`
	Domain   string        `json:"domain,omitempty"`
	Expires  time.Time     `json:"expires,omitzero"`
	Secure   bool          `json:"secure,omitempty"`
	HttpOnly bool          `json:"http_only,omitempty"`
	SameSite http.SameSite `json:"same_site,omitempty"`
}

func toStored(cookies []*http.Cookie) []storedCookie {
	out := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: c.SameSite,
		})
	}
	return out
}

func fromStored(stored []storedCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		out = append(out, &http.Cookie{
			Name:     s.Name,
			Value:    s.Value,
			Path:     s.Path,
			Domain:   s.Domain,
			Expires:  s.Expires,
			Secure:   s.Secure,
			HttpOnly: s.HttpOnly,
			SameSite: s.SameSite,
		})
	}
	return out
}

// MemoryStore 不落盘，进程退出即丢失
type MemoryStore struct {
	mu      sync.Mutex
	cookies []storedCookie
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fromStored(s.cookies), nil
}

func (s *MemoryStore) Save(_ context.Context, cookies []*http.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = toStored(cookies)
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = nil
	return nil
}

// FileStore 以 JSON 文件保存，文件内按 profile 区分多个会话
type FileStore struct {
	mu      sync.Mutex
	path    string
	profile string
}

func NewFileStore(path, profile string) *FileStore {
	return &FileStore{path: path, profile: profile}
}

func (s *FileStore) Load(context.Context) ([]*http.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.read()
	if err != nil {
		return nil, err
	}
	return fromStored(profiles[s.profile]), nil
}

func (s *FileStore) Save(_ context.Context, cookies []*http.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.read()
	if err != nil {
		return err
	}
	profiles[s.profile] = toStored(cookies)
	return s.write(profiles)
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.read()
	if err != nil {
		return err
	}
	delete(profiles, s.profile)
	return s.write(profiles)
}

func (s *FileStore) read() (map[string][]storedCookie, error) {
	profiles := map[string][]storedCookie{}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return profiles, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return profiles, nil
	}
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decode session file %s: %w", s.path, err)
	}
	return profiles, nil
}

// write 先写临时文件再改名，避免中途退出留下半个文件
func (s *FileStore) write(profiles map[string][]storedCookie) error {
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// RedisStore 保存在 Redis 中，便于多台机器共享同一会话
type RedisStore struct {
	cache   cache.CacheService
	profile string
	ttl     time.Duration
}

// NewRedisStore ttl 为 0 表示不过期
func NewRedisStore(c cache.CacheService, profile string, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, profile: profile, ttl: ttl}
}

func (s *RedisStore) key() string {
	return "session:" + s.profile
}

func (s *RedisStore) Load(ctx context.Context) ([]*http.Cookie, error) {
	var stored []storedCookie
	if err := s.cache.Get(ctx, s.key(), &stored); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}
	return fromStored(stored), nil
}

func (s *RedisStore) Save(ctx context.Context, cookies []*http.Cookie) error {
	return s.cache.Set(ctx, s.key(), toStored(cookies), s.ttl)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.cache.Delete(ctx, s.key())
}
