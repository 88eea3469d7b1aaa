package repository

import (
	"sync"

	"postify/internal/domain/user/model"
)

// SessionRepository 当前登录用户的本地状态
type SessionRepository interface {
	Current() (*model.User, bool)
	SetUser(user model.User)
	IsAuthenticated() bool
	Clear()
}

type sessionRepository struct {
	mu   sync.RWMutex
	user *model.User
}

// NewSessionRepository 创建空的会话状态
func NewSessionRepository() SessionRepository {
	return &sessionRepository{}
}

// Current 返回当前用户的副本
func (r *sessionRepository) Current() (*model.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.user == nil {
		return nil, false
	}
	u := *r.user
	return &u, true
}

// SetUser 登录成功或拉取资料后更新当前用户
func (r *sessionRepository) SetUser(user model.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = &user
}

func (r *sessionRepository) IsAuthenticated() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.user != nil
}

// Clear 登出
func (r *sessionRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = nil
}
