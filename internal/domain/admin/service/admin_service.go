package service

import (
	"context"
	"fmt"
	"strings"

	"postify/internal/domain/admin/repository"
	blogmodel "postify/internal/domain/blog/model"
	usermodel "postify/internal/domain/user/model"
	"postify/internal/pkg/transport"
	"postify/pkg/logger"
	"postify/pkg/utils"

	"go.uber.org/zap"
)

// AdminBlogsPath 管理后台博客列表第一页
const AdminBlogsPath = "admin/blogs/"

// BlogFilter 管理后台博客列表筛选
type BlogFilter struct {
	// URL 为空表示第一页，否则为上一页返回的 next 地址
	URL      string
	Search   string
	IsActive *bool
}

// AdminService 管理员操作
type AdminService interface {
	FetchUsers(ctx context.Context, p utils.Pagination) (*repository.UserPage, error)
	ToggleUserStatus(ctx context.Context, id int64) (bool, error)

	FetchAdminBlogs(ctx context.Context, f BlogFilter) (*utils.Page[blogmodel.Blog], error)
	ToggleBlogStatus(ctx context.Context, id int64) (bool, error)
	ToggleCommentStatus(ctx context.Context, id int64) (bool, error)

	Reset()
	Repository() repository.AdminRepository
}

type adminService struct {
	sender  transport.Sender
	repo    repository.AdminRepository
	logger  *zap.Logger
	baseURL string
}

// NewAdminService baseURL 为客户端的 API 根地址，用于解析 next 分页地址
func NewAdminService(sender transport.Sender, repo repository.AdminRepository, log *zap.Logger, baseURL string) AdminService {
	return &adminService{sender: sender, repo: repo, logger: logger.OrNop(log), baseURL: baseURL}
}

func (s *adminService) Repository() repository.AdminRepository {
	return s.repo
}

// FetchUsers 按页拉取用户，页码从 1 开始
func (s *adminService) FetchUsers(ctx context.Context, p utils.Pagination) (*repository.UserPage, error) {
	if p.Page <= 0 {
		p.Page = 1
	}

	resp, err := s.sender.Send(ctx, transport.Get("admin/users/", p.Values()))
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	var page utils.Page[usermodel.User]
	if err := resp.Decode(&page); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	s.repo.SetUsers(page.Results, page.Count, p.Page)
	users := s.repo.Users()
	return &users, nil
}

// ToggleUserStatus 启用/禁用用户，返回服务端确认后的状态
func (s *adminService) ToggleUserStatus(ctx context.Context, id int64) (bool, error) {
	res, err := s.toggle(ctx, fmt.Sprintf("admin/users/%d/toggle-status/", id))
	if err != nil {
		return false, fmt.Errorf("toggle user %d: %w", id, err)
	}
	s.repo.SetUserActive(id, res.IsActive)
	s.logger.Info("user status toggled", zap.Int64("user_id", id), zap.Bool("is_active", res.IsActive))
	return res.IsActive, nil
}

func (s *adminService) FetchAdminBlogs(ctx context.Context, f BlogFilter) (*utils.Page[blogmodel.Blog], error) {
	path := AdminBlogsPath
	if f.URL != "" {
		path = utils.RelativePath(f.URL, s.baseURL)
	}

	// next 地址已经带上了筛选参数
	var query utils.Pagination
	if !strings.Contains(path, "?") {
		query = utils.Pagination{Search: f.Search, IsActive: f.IsActive}
	}

	resp, err := s.sender.Send(ctx, transport.Get(path, query.Values()))
	if err != nil {
		return nil, fmt.Errorf("fetch admin blogs: %w", err)
	}
	var page utils.Page[blogmodel.Blog]
	if err := resp.Decode(&page); err != nil {
		return nil, fmt.Errorf("decode admin blogs: %w", err)
	}

	s.repo.SetBlogs(page.Results, page.NextURL(), isFirstAdminPage(path))
	return &page, nil
}

func isFirstAdminPage(path string) bool {
	base, _, _ := strings.Cut(path, "?")
	if base == "admin/" || base == AdminBlogsPath {
		return utils.IsFirstPage(path)
	}
	return false
}

// ToggleBlogStatus 屏蔽/恢复博客
func (s *adminService) ToggleBlogStatus(ctx context.Context, id int64) (bool, error) {
	res, err := s.toggle(ctx, fmt.Sprintf("admin/blogs/%d/toggle_active/", id))
	if err != nil {
		return false, fmt.Errorf("toggle blog %d: %w", id, err)
	}
	s.repo.SetBlogActive(id, res.IsActive)
	s.logger.Info("blog status toggled", zap.Int64("blog_id", id), zap.Bool("is_active", res.IsActive))
	return res.IsActive, nil
}

// ToggleCommentStatus 屏蔽/恢复评论，状态以服务端返回为准
func (s *adminService) ToggleCommentStatus(ctx context.Context, id int64) (bool, error) {
	res, err := s.toggle(ctx, fmt.Sprintf("admin/comments/%d/toggle-status/", id))
	if err != nil {
		return false, fmt.Errorf("toggle comment %d: %w", id, err)
	}
	if !s.repo.SetCommentActive(id, res.IsActive) {
		s.logger.Debug("toggled comment not in loaded blogs", zap.Int64("comment_id", id))
	}
	return res.IsActive, nil
}

func (s *adminService) Reset() {
	s.repo.Reset()
}

func (s *adminService) toggle(ctx context.Context, path string) (*blogmodel.ToggleStatusResult, error) {
	resp, err := s.sender.Send(ctx, transport.Post(path, nil))
	if err != nil {
		return nil, err
	}
	var res blogmodel.ToggleStatusResult
	if err := resp.Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
