// Package apitest 提供后端 REST API 的内存实现，供集成测试使用。
// 会话凭证以 JWT 的形式放在 HttpOnly Cookie 中，可以随时强制令牌失效。
package apitest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	blogmodel "postify/internal/domain/blog/model"
	usermodel "postify/internal/domain/user/model"

	"github.com/gin-gonic/gin"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	// 与后端一致的错误提示
	DetailTokenInvalid  = "Given token not valid for any token type"
	DetailRefreshFailed = "Token is invalid or expired"
	DetailNoCredentials = "Authentication credentials were not provided."
	DetailNoPermission  = "You do not have permission to perform this action."
	DetailNotFound      = "Not found."

	pageSize = 10
)

type account struct {
	user     usermodel.User
	password string
}

type blogRecord struct {
	blog    blogmodel.Blog
	likes   map[int64]bool
	reads   map[int64]bool
	deleted bool
}

type commentRecord struct {
	comment blogmodel.Comment
	blogID  int64
	deleted bool
}

// Server 内存版后端
type Server struct {
	*httptest.Server

	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu       sync.Mutex
	accounts map[int64]*account
	blogs    []*blogRecord
	comments []*commentRecord
	// 仍然有效的令牌 jti
	access  map[string]struct{}
	refresh map[string]struct{}
	nextID  int64

	refreshCalls atomic.Int32
	failRefresh  atomic.Bool
	refreshHook  atomic.Pointer[func()]
}

// NewServer 启动服务，API 挂在 /api/ 下
func NewServer() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		secret:     "apitest-secret",
		accessTTL:  5 * time.Minute,
		refreshTTL: time.Hour,
		accounts:   map[int64]*account{},
		access:     map[string]struct{}{},
		refresh:    map[string]struct{}{},
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// BaseURL API 根地址
func (s *Server) BaseURL() string {
	return s.URL + "/api/"
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.POST("/user/register/", s.register)
	api.POST("/user/login/", s.login)
	api.POST("/user/token/refresh/", s.refreshToken)
	api.POST("/user/logout/", s.logout)

	authed := api.Group("", s.authMiddleware())
	authed.GET("/user/get-profile/", s.getProfile)
	authed.PATCH("/user/update-profile/", s.updateProfile)

	authed.GET("/blog/posts/", s.listBlogs)
	authed.POST("/blog/posts/", s.createBlog)
	authed.GET("/blog/my-posts/", s.myBlogs)
	authed.GET("/blog/posts/:id/", s.getBlog)
	authed.PATCH("/blog/posts/:id/", s.updateBlog)
	authed.DELETE("/blog/posts/:id/", s.deleteBlog)
	authed.POST("/blog/:id/like/", s.toggleLike)
	authed.POST("/blog/:id/read/", s.markRead)
	authed.POST("/blog/:id/comment/", s.addComment)
	authed.DELETE("/blog/comment/:id/delete/", s.deleteComment)
	authed.GET("/cloudinary-signature/", s.signature)

	admin := authed.Group("/admin", s.adminMiddleware())
	admin.GET("/users/", s.adminUsers)
	admin.POST("/users/:id/toggle-status/", s.adminToggleUser)
	admin.GET("/blogs/", s.adminBlogs)
	admin.POST("/blogs/:id/toggle_active/", s.adminToggleBlog)
	admin.POST("/comments/:id/toggle-status/", s.adminToggleComment)

	return r
}

// AddUser 直接创建账号
func (s *Server) AddUser(username, password, role string) usermodel.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password, role, "", "", username+"@example.com")
}

func (s *Server) addUserLocked(username, password, role, first, last, email string) usermodel.User {
	s.nextID++
	u := usermodel.User{
		ID:         s.nextID,
		Username:   username,
		Email:      email,
		FirstName:  first,
		LastName:   last,
		Role:       role,
		IsActive:   true,
		DateJoined: time.Now().UTC(),
	}
	s.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// AddBlog 以 authorID 的身份直接创建博客
func (s *Server) AddBlog(authorID int64, title, content string) blogmodel.Blog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addBlogLocked(authorID, title, content, nil)
}

func (s *Server) addBlogLocked(authorID int64, title, content string, images []*string) blogmodel.Blog {
	s.nextID++
	acc := s.accounts[authorID]
	b := blogmodel.Blog{
		ID:        s.nextID,
		Title:     title,
		Content:   content,
		Author:    blogmodel.Author{ID: authorID, Username: acc.user.Username, ProfilePic: acc.user.ProfilePic},
		CreatedAt: time.Now().UTC(),
		IsActive:  true,
	}
	if len(images) > 0 {
		b.Image1 = images[0]
	}
	if len(images) > 1 {
		b.Image2 = images[1]
	}
	if len(images) > 2 {
		b.Image3 = images[2]
	}
	s.blogs = append(s.blogs, &blogRecord{blog: b, likes: map[int64]bool{}, reads: map[int64]bool{}})
	return b
}

// DeleteCommentDirect 模拟其他客户端删除了评论
func (s *Server) DeleteCommentDirect(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeCommentLocked(id)
}

// ExpireSessions 让所有已签发的访问令牌失效，刷新令牌仍然有效
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = map[string]struct{}{}
}

// RevokeRefresh 让刷新令牌也失效，之后的刷新全部失败
func (s *Server) RevokeRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = map[string]struct{}{}
}

// FailRefresh 打开后刷新接口固定返回 401
func (s *Server) FailRefresh(fail bool) {
	s.failRefresh.Store(fail)
}

// OnRefresh 刷新接口处理前调用 fn，用于在测试中制造并发窗口
func (s *Server) OnRefresh(fn func()) {
	if fn == nil {
		s.refreshHook.Store(nil)
		return
	}
	s.refreshHook.Store(&fn)
}

// RefreshCalls 刷新接口被调用的次数
func (s *Server) RefreshCalls() int {
	return int(s.refreshCalls.Load())
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func fieldError(c *gin.Context, field, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{field: []string{msg}})
}
