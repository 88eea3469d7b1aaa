package service

import (
	"context"
	"fmt"
	"strings"

	"postify/internal/domain/blog/model"
	"postify/internal/domain/blog/repository"
	"postify/internal/domain/blog/tree"
	"postify/internal/pkg/transport"
	"postify/pkg/logger"
	"postify/pkg/metrics"
	"postify/pkg/security"
	"postify/pkg/utils"

	"go.uber.org/zap"
)

// FeedPath 博客列表第一页
const FeedPath = "blog/posts/"

// OrphanHook 回复的父评论不在本地树中、被当作一级评论插入时回调
type OrphanHook func(blogID int64, c model.Comment)

type BlogService interface {
	FetchBlogs(ctx context.Context, pageURL string) (*utils.Page[model.Blog], error)
	FetchMyBlogs(ctx context.Context) ([]model.Blog, error)
	FetchBlog(ctx context.Context, id int64) (*model.Blog, error)
	CreateBlog(ctx context.Context, in model.BlogInput) (*model.Blog, error)
	UpdateBlog(ctx context.Context, id int64, in model.BlogInput) (*model.Blog, error)
	DeleteBlog(ctx context.Context, id int64) error

	ToggleLike(ctx context.Context, id int64) (string, error)
	MarkRead(ctx context.Context, id int64) (string, error)

	AddComment(ctx context.Context, blogID int64, in model.CommentInput) (*model.Comment, error)
	DeleteComment(ctx context.Context, blogID, commentID int64) error

	Repository() repository.BlogRepository
}

type Option func(*blogService)

func WithLogger(l *zap.Logger) Option {
	return func(s *blogService) { s.logger = l }
}

func WithMetrics(m *metrics.MetricsCollector) Option {
	return func(s *blogService) { s.metrics = m }
}

// WithBaseURL 客户端的 API 根地址，用于把 next 地址转换为相对路径
func WithBaseURL(base string) Option {
	return func(s *blogService) { s.baseURL = base }
}

func WithOrphanHook(h OrphanHook) Option {
	return func(s *blogService) { s.onOrphan = h }
}

type blogService struct {
	sender   transport.Sender
	repo     repository.BlogRepository
	logger   *zap.Logger
	metrics  *metrics.MetricsCollector
	onOrphan OrphanHook
	baseURL  string
}

func NewBlogService(sender transport.Sender, repo repository.BlogRepository, opts ...Option) BlogService {
	s := &blogService{sender: sender, repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logger.OrNop(s.logger)
	return s
}

func (s *blogService) Repository() repository.BlogRepository {
	return s.repo
}

// FetchBlogs 拉取一页博客；pageURL 为空表示第一页，否则为上一页返回的 next 地址
func (s *blogService) FetchBlogs(ctx context.Context, pageURL string) (*utils.Page[model.Blog], error) {
	path := FeedPath
	if pageURL != "" {
		// next 地址可能指向其他主机，统一按相对路径发给当前 API
		path = utils.RelativePath(pageURL, s.baseURL)
	}

	var page utils.Page[model.Blog]
	if err := s.get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("fetch blogs: %w", err)
	}

	s.repo.SetFeed(page.Results, page.NextURL(), isFirstFeedPage(pageURL))
	return &page, nil
}

func isFirstFeedPage(pageURL string) bool {
	if pageURL == "" || strings.TrimSuffix(pageURL, "/") == "blog" {
		return true
	}
	return utils.IsFirstPage(pageURL)
}

func (s *blogService) FetchMyBlogs(ctx context.Context) ([]model.Blog, error) {
	var blogs []model.Blog
	if err := s.get(ctx, "blog/my-posts/", &blogs); err != nil {
		return nil, fmt.Errorf("fetch my blogs: %w", err)
	}
	s.repo.SetMine(blogs)
	return blogs, nil
}

func (s *blogService) FetchBlog(ctx context.Context, id int64) (*model.Blog, error) {
	var blog model.Blog
	if err := s.get(ctx, blogPath(id), &blog); err != nil {
		return nil, fmt.Errorf("fetch blog %d: %w", id, err)
	}
	s.repo.SetCurrent(blog)
	return &blog, nil
}

func (s *blogService) CreateBlog(ctx context.Context, in model.BlogInput) (*model.Blog, error) {
	if err := security.Validate(in); err != nil {
		return nil, err
	}

	resp, err := s.sender.Send(ctx, transport.Post(FeedPath, in.Payload()))
	if err != nil {
		return nil, fmt.Errorf("create blog: %w", err)
	}
	var blog model.Blog
	if err := resp.Decode(&blog); err != nil {
		return nil, fmt.Errorf("decode created blog: %w", err)
	}

	s.repo.Prepend(blog)
	s.logger.Info("blog created", zap.Int64("blog_id", blog.ID))
	return &blog, nil
}

func (s *blogService) UpdateBlog(ctx context.Context, id int64, in model.BlogInput) (*model.Blog, error) {
	if err := security.Validate(in); err != nil {
		return nil, err
	}

	resp, err := s.sender.Send(ctx, transport.Patch(blogPath(id), in.Payload()))
	if err != nil {
		return nil, fmt.Errorf("update blog %d: %w", id, err)
	}
	var blog model.Blog
	if err := resp.Decode(&blog); err != nil {
		return nil, fmt.Errorf("decode updated blog: %w", err)
	}

	s.repo.Replace(blog)
	return &blog, nil
}

func (s *blogService) DeleteBlog(ctx context.Context, id int64) error {
	if _, err := s.sender.Send(ctx, transport.Delete(blogPath(id))); err != nil {
		return fmt.Errorf("delete blog %d: %w", id, err)
	}
	s.repo.Delete(id)
	s.logger.Info("blog deleted", zap.Int64("blog_id", id))
	return nil
}

// ToggleLike 点赞/取消点赞，返回后端提示
func (s *blogService) ToggleLike(ctx context.Context, id int64) (string, error) {
	msg, err := s.action(ctx, fmt.Sprintf("blog/%d/like/", id))
	if err != nil {
		return "", fmt.Errorf("toggle like %d: %w", id, err)
	}
	s.repo.ToggleLike(id)
	return msg, nil
}

// MarkRead 标记已读，重复调用不会重复计数
func (s *blogService) MarkRead(ctx context.Context, id int64) (string, error) {
	msg, err := s.action(ctx, fmt.Sprintf("blog/%d/read/", id))
	if err != nil {
		return "", fmt.Errorf("mark read %d: %w", id, err)
	}
	s.repo.MarkRead(id)
	return msg, nil
}

func (s *blogService) AddComment(ctx context.Context, blogID int64, in model.CommentInput) (*model.Comment, error) {
	if err := security.Validate(in); err != nil {
		return nil, err
	}

	resp, err := s.sender.Send(ctx, transport.Post(fmt.Sprintf("blog/%d/comment/", blogID), in))
	if err != nil {
		return nil, fmt.Errorf("add comment to blog %d: %w", blogID, err)
	}
	var c model.Comment
	if err := resp.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode comment: %w", err)
	}

	placed, ok := s.repo.AddComment(blogID, c)
	if ok && placed == tree.PlacedOrphan {
		s.orphan(blogID, c)
	}
	return &c, nil
}

func (s *blogService) DeleteComment(ctx context.Context, blogID, commentID int64) error {
	if _, err := s.sender.Send(ctx, transport.Delete(fmt.Sprintf("blog/comment/%d/delete/", commentID))); err != nil {
		return fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	s.repo.RemoveComment(blogID, commentID)
	return nil
}

// orphan 父评论已被删除或尚未加载，评论降级为一级评论
func (s *blogService) orphan(blogID int64, c model.Comment) {
	var parent int64
	if c.ParentID != nil {
		parent = *c.ParentID
	}
	s.logger.Warn("reply parent not found, inserted as root comment",
		zap.Int64("blog_id", blogID),
		zap.Int64("comment_id", c.ID),
		zap.Int64("parent_id", parent),
	)
	s.metrics.RecordOrphanReply()
	if s.onOrphan != nil {
		s.onOrphan(blogID, c)
	}
}

func (s *blogService) get(ctx context.Context, path string, out any) error {
	resp, err := s.sender.Send(ctx, transport.Get(path, nil))
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

func (s *blogService) action(ctx context.Context, path string) (string, error) {
	resp, err := s.sender.Send(ctx, transport.Post(path, nil))
	if err != nil {
		return "", err
	}
	var res model.LikeResult
	// 部分接口返回空体
	if len(resp.Body) > 0 {
		if err := resp.Decode(&res); err != nil {
			return "", err
		}
	}
	return res.Message, nil
}

func blogPath(id int64) string {
	return fmt.Sprintf("blog/posts/%d/", id)
}
