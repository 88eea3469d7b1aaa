package cookiestore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"postify/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreProfiles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	alice := NewFileStore(path, "alice")
	bob := NewFileStore(path, "bob")

	cookies, err := alice.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)

	require.NoError(t, alice.Save(ctx, []*http.Cookie{{Name: "access_token", Value: "a", Path: "/", HttpOnly: true}}))
	require.NoError(t, bob.Save(ctx, []*http.Cookie{{Name: "access_token", Value: "b", Path: "/"}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cookies, err = alice.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "a", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	require.NoError(t, alice.Clear(ctx))
	cookies, err = alice.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)

	cookies, err = bob.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "b", cookies[0].Value)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path, "default").Load(context.Background())

	assert.Error(t, err)
}

type memCache struct {
	data map[string][]byte
	ttl  map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttl: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string, dest interface{}) error {
	b, ok := m.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (m *memCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.ttl[key] = expiration
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	c := newMemCache()
	store := NewRedisStore(c, "work", time.Hour)

	cookies, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)

	require.NoError(t, store.Save(ctx, []*http.Cookie{{Name: "refresh_token", Value: "r", Path: "/api", Secure: true}}))
	assert.Equal(t, time.Hour, c.ttl["session:work"])

	cookies, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "r", cookies[0].Value)
	assert.Equal(t, "/api", cookies[0].Path)
	assert.True(t, cookies[0].Secure)

	require.NoError(t, store.Clear(ctx))
	cookies, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cookies)
}

func TestJarPersistsAcrossInstances(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user/login/":
			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "t1", Path: "/", HttpOnly: true})
			http.SetCookie(w, &http.Cookie{Name: "refresh_token", Value: "r1", Path: "/", MaxAge: 3600})
		case "/api/user/logout/":
			http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "", Path: "/", MaxAge: -1})
		case "/api/echo/":
			c, err := r.Cookie("access_token")
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(c.Value))
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	origin := srv.URL + "/api/"
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"), "default")

	jar, err := NewJar(ctx, store, origin, nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Post(srv.URL+"/api/user/login/", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 2, jar.Len())

	// 新进程：从文件恢复
	restored, err := NewJar(ctx, store, origin, nil)
	require.NoError(t, err)
	u, _ := url.Parse(origin + "echo/")
	names := map[string]string{}
	for _, c := range restored.Cookies(u) {
		names[c.Name] = c.Value
	}
	assert.Equal(t, map[string]string{"access_token": "t1", "refresh_token": "r1"}, names)

	client = &http.Client{Jar: restored}
	resp, err = client.Post(srv.URL+"/api/user/logout/", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 1, restored.Len())

	saved, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "refresh_token", saved[0].Name)
	assert.WithinDuration(t, time.Now().Add(time.Hour), saved[0].Expires, time.Minute)
}

func TestJarSkipsExpiredAndClears(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, []*http.Cookie{
		{Name: "old", Value: "x", Path: "/", Expires: time.Now().Add(-time.Hour)},
		{Name: "fresh", Value: "y", Path: "/"},
	}))

	jar, err := NewJar(ctx, store, "http://api.test/api/", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, jar.Len())

	u, _ := url.Parse("http://api.test/api/blog/posts/")
	cookies := jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "fresh", cookies[0].Name)

	require.NoError(t, jar.Clear(ctx))
	assert.Empty(t, jar.Cookies(u))
	saved, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "/", defaultPath(""))
	assert.Equal(t, "/", defaultPath("/"))
	assert.Equal(t, "/", defaultPath("/login"))
	assert.Equal(t, "/api", defaultPath("/api/"))
	assert.Equal(t, "/api/user", defaultPath("/api/user/login"))
}
