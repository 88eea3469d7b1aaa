package apitest

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	blogmodel "postify/internal/domain/blog/model"
	usermodel "postify/internal/domain/user/model"

	"github.com/gin-gonic/gin"
)

// activeFilter 解析 is_active 查询参数，未传时返回 nil
func activeFilter(c *gin.Context) *bool {
	raw, ok := c.GetQuery("is_active")
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

func (s *Server) adminUsers(c *gin.Context) {
	search := strings.ToLower(c.Query("search"))
	active := activeFilter(c)

	s.mu.Lock()
	users := make([]usermodel.User, 0, len(s.accounts))
	for _, acc := range s.accounts {
		u := acc.user
		if search != "" && !strings.Contains(strings.ToLower(u.Username), search) && !strings.Contains(strings.ToLower(u.Email), search) {
			continue
		}
		if active != nil && u.IsActive != *active {
			continue
		}
		users = append(users, u)
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	c.JSON(http.StatusOK, paginate(c, users))
}

func (s *Server) adminToggleUser(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accounts[id]
	if acc == nil {
		detail(c, http.StatusNotFound, DetailNotFound)
		return
	}
	if acc.user.ID == c.GetInt64(ctxUserID) {
		detail(c, http.StatusBadRequest, "You cannot deactivate yourself.")
		return
	}
	acc.user.IsActive = !acc.user.IsActive
	c.JSON(http.StatusOK, blogmodel.ToggleStatusResult{IsActive: acc.user.IsActive, Message: "User status updated"})
}

func (s *Server) adminBlogs(c *gin.Context) {
	search := strings.ToLower(c.Query("search"))
	active := activeFilter(c)
	viewer := c.GetInt64(ctxUserID)

	s.mu.Lock()
	blogs := []blogmodel.Blog{}
	for i := len(s.blogs) - 1; i >= 0; i-- {
		rec := s.blogs[i]
		if rec.deleted {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(rec.blog.Title), search) && !strings.Contains(strings.ToLower(rec.blog.Content), search) {
			continue
		}
		if active != nil && rec.blog.IsActive != *active {
			continue
		}
		blogs = append(blogs, s.renderLocked(rec, viewer))
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, paginate(c, blogs))
}

func (s *Server) adminToggleBlog(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findBlogLocked(id)
	if rec == nil {
		detail(c, http.StatusNotFound, DetailNotFound)
		return
	}
	rec.blog.IsActive = !rec.blog.IsActive
	c.JSON(http.StatusOK, blogmodel.ToggleStatusResult{IsActive: rec.blog.IsActive, Message: "Blog status updated"})
}

func (s *Server) adminToggleComment(c *gin.Context) {
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
	rec.comment.IsActive = !rec.comment.IsActive
	c.JSON(http.StatusOK, blogmodel.ToggleStatusResult{IsActive: rec.comment.IsActive, Message: "Comment status updated"})
}
