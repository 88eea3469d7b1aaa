package service

import (
	"context"
	"errors"
	"fmt"

	"postify/internal/domain/user/model"
	"postify/internal/domain/user/repository"
	"postify/internal/pkg/transport"
	"postify/pkg/logger"
	"postify/pkg/security"

	"go.uber.org/zap"
)

// ErrNotAuthenticated 本地没有登录用户
var ErrNotAuthenticated = errors.New("not authenticated")

// UserService 用户服务接口
type UserService interface {
	Login(ctx context.Context, req model.LoginRequest) (*model.User, error)
	Register(ctx context.Context, req model.RegisterRequest) error
	FetchCurrentUser(ctx context.Context) (*model.User, error)
	UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.User, error)
	Logout(ctx context.Context) error

	CurrentUser() (*model.User, bool)
}

// LogoutHook 登出时清理其他模块的状态
type LogoutHook func()

// userService 实现
type userService struct {
	sender   transport.Sender
	repo     repository.SessionRepository
	logger   *zap.Logger
	onLogout []LogoutHook
}

// NewUserService 创建用户服务
func NewUserService(sender transport.Sender, repo repository.SessionRepository, log *zap.Logger, hooks ...LogoutHook) UserService {
	return &userService{
		sender:   sender,
		repo:     repo,
		logger:   logger.OrNop(log),
		onLogout: hooks,
	}
}

// Login 登录，成功后服务端通过 Cookie 下发会话凭证
func (s *userService) Login(ctx context.Context, req model.LoginRequest) (*model.User, error) {
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if err := security.Validate(req); err != nil {
		return nil, err
	}

	resp, err := s.sender.Send(ctx, transport.Post("user/login/", req))
	if err != nil {
		s.logger.Warn("login failed", zap.String("username", req.Username), zap.Error(err))
		return nil, fmt.Errorf("login: %w", err)
	}

	var out model.AuthResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}

	s.repo.SetUser(out.User)
	s.logger.Info("logged in", zap.Int64("user_id", out.User.ID), zap.String("role", out.User.Role))
	return &out.User, nil
}

// Register 注册，不会自动登录
func (s *userService) Register(ctx context.Context, req model.RegisterRequest) error {
	if err := security.Validate(req); err != nil {
		return err
	}
	if _, err := s.sender.Send(ctx, transport.Post("user/register/", req)); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.logger.Info("registered", zap.String("username", req.Username))
	return nil
}

// FetchCurrentUser 拉取当前用户资料，用于恢复已有会话
func (s *userService) FetchCurrentUser(ctx context.Context) (*model.User, error) {
	resp, err := s.sender.Send(ctx, transport.Get("user/get-profile/", nil))
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	var user model.User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	s.repo.SetUser(user)
	return &user, nil
}

// UpdateProfile 修改资料
func (s *userService) UpdateProfile(ctx context.Context, req model.UpdateProfileRequest) (*model.User, error) {
	if !s.repo.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	if err := security.Validate(req); err != nil {
		return nil, err
	}

	resp, err := s.sender.Send(ctx, transport.Patch("user/update-profile/", req))
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	var out model.AuthResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	s.repo.SetUser(out.User)
	return &out.User, nil
}

// Logout 登出；即使服务端调用失败也清空本地状态，错误仍然返回
func (s *userService) Logout(ctx context.Context) error {
	_, err := s.sender.Send(ctx, transport.Post("user/logout/", nil))

	s.repo.Clear()
	for _, hook := range s.onLogout {
		hook()
	}

	if err != nil {
		s.logger.Warn("logout request failed, local session cleared", zap.Error(err))
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

func (s *userService) CurrentUser() (*model.User, bool) {
	return s.repo.Current()
}
