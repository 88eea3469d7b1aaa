package apitest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	blogmodel "postify/internal/domain/blog/model"
	"postify/pkg/utils"

	"github.com/gin-gonic/gin"
)

type blogBody struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Image1  *string `json:"image_1"`
	Image2  *string `json:"image_2"`
	Image3  *string `json:"image_3"`
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		detail(c, http.StatusNotFound, DetailNotFound)
		return 0, false
	}
	return id, true
}

func (s *Server) findBlogLocked(id int64) *blogRecord {
	for _, b := range s.blogs {
		if b.blog.ID == id && !b.deleted {
			return b
		}
	}
	return nil
}

// renderLocked 按请求者计算 is_liked / is_read，并组装评论树
func (s *Server) renderLocked(rec *blogRecord, viewer int64) blogmodel.Blog {
	b := rec.blog
	b.LikeCount = len(rec.likes)
	b.ReadCount = len(rec.reads)
	b.IsLiked = rec.likes[viewer]
	b.IsRead = rec.reads[viewer]
	b.Comments = s.commentTreeLocked(rec.blog.ID, nil)
	if acc := s.accounts[b.Author.ID]; acc != nil {
		b.Author.Username = acc.user.Username
		b.Author.ProfilePic = acc.user.ProfilePic
	}
	return b
}

func (s *Server) commentTreeLocked(blogID int64, parent *int64) []blogmodel.Comment {
	out := []blogmodel.Comment{}
	for _, rec := range s.comments {
		if rec.deleted || rec.blogID != blogID {
			continue
		}
		p := rec.comment.ParentID
		if (parent == nil) != (p == nil) || (parent != nil && *parent != *p) {
			continue
		}
		c := rec.comment
		id := c.ID
		c.Replies = s.commentTreeLocked(blogID, &id)
		if acc := s.accounts[c.User.ID]; acc != nil {
			c.User.Username = acc.user.Username
		}
		out = append(out, c)
	}
	return out
}

// paginate 按 page 参数切片，next/previous 为绝对地址
func paginate[T any](c *gin.Context, items []T) utils.Page[T] {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}

	out := utils.Page[T]{Count: len(items), Results: items[start:end]}
	link := func(p int) *string {
		q := c.Request.URL.Query()
		q.Set("page", strconv.Itoa(p))
		u := fmt.Sprintf("http://%s%s?%s", c.Request.Host, c.Request.URL.Path, q.Encode())
		return &u
	}
	if end < len(items) {
		out.Next = link(page + 1)
	}
	if page > 1 {
		out.Previous = link(page - 1)
	}
	return out
}

func (s *Server) listBlogs(c *gin.Context) {
	viewer := c.GetInt64(ctxUserID)
	s.mu.Lock()
	blogs := make([]blogmodel.Blog, 0, len(s.blogs))
	// 新的在前
	for i := len(s.blogs) - 1; i >= 0; i-- {
		rec := s.blogs[i]
		if rec.deleted || !rec.blog.IsActive {
			continue
		}
		blogs = append(blogs, s.renderLocked(rec, viewer))
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, paginate(c, blogs))
}

func (s *Server) myBlogs(c *gin.Context) {
	viewer := c.GetInt64(ctxUserID)
	s.mu.Lock()
	blogs := []blogmodel.Blog{}
	for i := len(s.blogs) - 1; i >= 0; i-- {
		rec := s.blogs[i]
		if rec.deleted || rec.blog.Author.ID != viewer {
			continue
		}
		blogs = append(blogs, s.renderLocked(rec, viewer))
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, blogs)
}

func (s *Server) createBlog(c *gin.Context) {
	var body blogBody
	if err := c.ShouldBindJSON(&body); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		fieldError(c, "title", "This field may not be blank.")
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		fieldError(c, "content", "This field may not be blank.")
		return
	}

	viewer := c.GetInt64(ctxUserID)
	s.mu.Lock()
	b := s.addBlogLocked(viewer, body.Title, body.Content, []*string{body.Image1, body.Image2, body.Image3})
	out := s.renderLocked(s.findBlogLocked(b.ID), viewer)
	s.mu.Unlock()

	c.JSON(http.StatusCreated, out)
}

func (s *Server) getBlog(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	viewer := c.GetInt64(ctxUserID)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findBlogLocked(id)
	if rec == nil {
		detail(c, http.StatusNotFound, DetailNotFound)
		return
	}
	c.JSON(http.StatusOK, s.renderLocked(rec, viewer))
}

// ownedBlogLocked 找到 id 对应且属于当前用户的博客，失败时已写入响应
func (s *Server) ownedBlogLocked(c *gin.Context) *blogRecord {
	id, ok := paramID(c)
	if !ok {
		return nil
	}
	rec := s.findBlogLocked(id)
	if rec == nil {
		detail(c, http.StatusNotFound, DetailNotFound)
		return nil
	}
	if rec.blog.Author.ID != c.GetInt64(ctxUserID) {
		detail(c, http.StatusForbidden, DetailNoPermission)
		return nil
	}
	return rec
}

func (s *Server) updateBlog(c *gin.Context) {
	var body blogBody
	if err := c.ShouldBindJSON(&body); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.ownedBlogLocked(c)
	if rec == nil {
		return
	}
	if body.Title != "" {
		rec.blog.Title = body.Title
	}
	if body.Content != "" {
		rec.blog.Content = body.Content
	}
	rec.blog.Image1, rec.blog.Image2, rec.blog.Image3 = body.Image1, body.Image2, body.Image3
	c.JSON(http.StatusOK, s.renderLocked(rec, c.GetInt64(ctxUserID)))
}

func (s *Server) deleteBlog(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.ownedBlogLocked(c)
	if rec == nil {
		return
	}
	rec.deleted = true
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleLike(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	viewer := c.GetInt64(ctxUserID)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findBlogLocked(id)
	if rec == nil {
		detail(c, http.StatusNotFound, DetailNotFound)
		return
	}
	if rec.likes[viewer] {
		delete(rec.likes, viewer)
		c.JSON(http.StatusOK, blogmodel.LikeResult{Message: "Blog unliked"})
		return
	}
	rec.likes[viewer] = true
	c.JSON(http.StatusOK, blogmodel.LikeResult{Message: "Blog liked"})
}

func (s *Server) markRead(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	viewer := c.GetInt64(ctxUserID)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findBlogLocked(id)
	if rec == nil {
		detail(c, http.StatusNotFound, DetailNotFound)
		return
	}
	if rec.reads[viewer] {
		c.JSON(http.StatusOK, blogmodel.LikeResult{Message: "Already marked as read"})
		return
	}
	rec.reads[viewer] = true
	c.JSON(http.StatusOK, blogmodel.LikeResult{Message: "Marked as read"})
}

func (s *Server) addComment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var body blogmodel.CommentInput
	if err := c.ShouldBindJSON(&body); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		fieldError(c, "content", "This field may not be blank.")
		return
	}
	viewer := c.GetInt64(ctxUserID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findBlogLocked(id) == nil {
		detail(c, http.StatusNotFound, DetailNotFound)
		return
	}
	if body.ParentID != nil {
		parent := s.findCommentLocked(*body.ParentID)
		if parent == nil || parent.blogID != id {
			fieldError(c, "parent_comment", "Invalid parent comment.")
			return
		}
	}

	s.nextID++
	acc := s.accounts[viewer]
	comment := blogmodel.Comment{
		ID:        s.nextID,
		Content:   body.Content,
		User:      blogmodel.Author{ID: viewer, Username: acc.user.Username},
		CreatedAt: time.Now().UTC(),
		ParentID:  body.ParentID,
		IsActive:  true,
	}
	s.comments = append(s.comments, &commentRecord{comment: comment, blogID: id})
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) findCommentLocked(id int64) *commentRecord {
	for _, rec := range s.comments {
		if rec.comment.ID == id && !rec.deleted {
			return rec
		}
	}
	return nil
}

// removeCommentLocked 删除评论及其全部回复
func (s *Server) removeCommentLocked(id int64) {
	for _, rec := range s.comments {
		if rec.deleted {
			continue
		}
		if rec.comment.ID == id {
			rec.deleted = true
			continue
		}
		if rec.comment.ParentID != nil && *rec.comment.ParentID == id {
			s.removeCommentLocked(rec.comment.ID)
		}
	}
}

func (s *Server) deleteComment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findCommentLocked(id)
	if rec == nil {
		detail(c, http.StatusNotFound, DetailNotFound)
		return
	}
	if rec.comment.User.ID != c.GetInt64(ctxUserID) {
		detail(c, http.StatusForbidden, DetailNoPermission)
		return
	}
	s.removeCommentLocked(id)
	c.Status(http.StatusNoContent)
}

func (s *Server) signature(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_key":       "apitest-key",
		"timestamp":     time.Now().Unix(),
		"signature":     "apitest-signature",
		"upload_preset": "postify",
		"cloud_name":    "apitest",
	})
}
