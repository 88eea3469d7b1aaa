package repository

import (
	"sync"

	blogmodel "postify/internal/domain/blog/model"
	blogrepo "postify/internal/domain/blog/repository"
	"postify/internal/domain/blog/tree"
	usermodel "postify/internal/domain/user/model"
	"postify/pkg/utils"
)

// UserPage 管理后台用户列表的当前页
type UserPage struct {
	Users       []usermodel.User
	Count       int
	CurrentPage int
	TotalPages  int
}

// AdminRepository 管理后台状态
type AdminRepository interface {
	Users() UserPage
	SetUsers(users []usermodel.User, count, page int)
	SetUserActive(id int64, active bool) bool

	Blogs() []blogmodel.Blog
	Next() string
	SetBlogs(blogs []blogmodel.Blog, next string, firstPage bool)
	SetBlogActive(id int64, active bool) bool
	SetCommentActive(id int64, active bool) bool

	Reset()
}

type adminRepository struct {
	mu    sync.RWMutex
	users UserPage
	blogs []blogmodel.Blog
	next  string
}

func NewAdminRepository() AdminRepository {
	return &adminRepository{users: UserPage{CurrentPage: 1, TotalPages: 1}}
}

func (r *adminRepository) Users() UserPage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	page := r.users
	page.Users = append([]usermodel.User(nil), r.users.Users...)
	return page
}

// SetUsers 用户列表按页码翻页，每次整页替换
func (r *adminRepository) SetUsers(users []usermodel.User, count, page int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if page <= 0 {
		page = 1
	}
	r.users = UserPage{
		Users:       append([]usermodel.User(nil), users...),
		Count:       count,
		CurrentPage: page,
		TotalPages:  utils.TotalPages(count, utils.DefaultPageSize),
	}
}

func (r *adminRepository) SetUserActive(id int64, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users.Users {
		if r.users.Users[i].ID == id {
			r.users.Users[i].IsActive = active
			return true
		}
	}
	return false
}

func (r *adminRepository) Blogs() []blogmodel.Blog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]blogmodel.Blog, len(r.blogs))
	for i, b := range r.blogs {
		out[i] = b.Clone()
	}
	return out
}

func (r *adminRepository) Next() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.next
}

func (r *adminRepository) SetBlogs(blogs []blogmodel.Blog, next string, firstPage bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = next
	if firstPage {
		r.blogs = blogrepo.AppendUnique(nil, blogs)
		return
	}
	r.blogs = blogrepo.AppendUnique(r.blogs, blogs)
}

func (r *adminRepository) SetBlogActive(id int64, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.blogs {
		if r.blogs[i].ID == id {
			r.blogs[i].IsActive = active
			return true
		}
	}
	return false
}

// SetCommentActive 依次在每篇博客的评论树中查找，命中第一处即停止
func (r *adminRepository) SetCommentActive(id int64, active bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.blogs {
		if comments, ok := tree.SetActive(r.blogs[i].Comments, id, active); ok {
			r.blogs[i].Comments = comments
			return true
		}
	}
	return false
}

// Reset 登出时清空
func (r *adminRepository) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = UserPage{CurrentPage: 1, TotalPages: 1}
	r.blogs = nil
	r.next = ""
}
