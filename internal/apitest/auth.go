package apitest

import (
	"net/http"
	"strings"

	usermodel "postify/internal/domain/user/model"
	"postify/pkg/utils"

	"github.com/gin-gonic/gin"
)

const ctxUserID = "userID"

// authMiddleware 校验访问令牌 Cookie
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AccessCookie)
		if err != nil || token == "" {
			detail(c, http.StatusForbidden, DetailNoCredentials)
			return
		}

		claims, err := utils.ParseToken(s.secret, token)
		if err != nil {
			detail(c, http.StatusUnauthorized, DetailTokenInvalid)
			return
		}

		s.mu.Lock()
		_, valid := s.access[claims.ID]
		acc, exists := s.accounts[claims.UserID]
		s.mu.Unlock()
		if !valid || !exists {
			detail(c, http.StatusUnauthorized, DetailTokenInvalid)
			return
		}
		if !acc.user.IsActive {
			detail(c, http.StatusForbidden, "User is inactive")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Next()
	}
}

// adminMiddleware 管理员权限
func (s *Server) adminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		acc := s.accounts[c.GetInt64(ctxUserID)]
		s.mu.Unlock()

		if acc == nil || acc.user.Role != usermodel.RoleAdmin {
			detail(c, http.StatusForbidden, DetailNoPermission)
			return
		}
		c.Next()
	}
}

func (s *Server) issueAccess(c *gin.Context, u usermodel.User) bool {
	token, expireAt, err := utils.GenerateToken(s.secret, u.ID, u.Role, s.accessTTL)
	if err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return false
	}
	claims, err := utils.ParseToken(s.secret, token)
	if err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return false
	}

	s.mu.Lock()
	s.access[claims.ID] = struct{}{}
	s.mu.Unlock()

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     AccessCookie,
		Value:    token,
		Path:     "/",
		Expires:  expireAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func (s *Server) issueRefresh(c *gin.Context, u usermodel.User) bool {
	token, expireAt, err := utils.GenerateToken(s.secret, u.ID, u.Role, s.refreshTTL)
	if err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return false
	}
	claims, err := utils.ParseToken(s.secret, token)
	if err != nil {
		detail(c, http.StatusInternalServerError, err.Error())
		return false
	}

	s.mu.Lock()
	s.refresh[claims.ID] = struct{}{}
	s.mu.Unlock()

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RefreshCookie,
		Value:    token,
		Path:     "/",
		Expires:  expireAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return true
}

func (s *Server) register(c *gin.Context) {
	var req usermodel.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if strings.EqualFold(acc.user.Username, req.Username) {
			fieldError(c, "username", "A user with that username already exists.")
			return
		}
		if strings.EqualFold(acc.user.Email, req.Email) {
			fieldError(c, "email", "user with this email already exists.")
			return
		}
	}
	u := s.addUserLocked(req.Username, req.Password, usermodel.RoleUser, req.FirstName, req.LastName, req.Email)
	c.JSON(http.StatusCreated, u)
}

func (s *Server) login(c *gin.Context) {
	var req usermodel.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Role == "" {
		req.Role = usermodel.RoleUser
	}

	s.mu.Lock()
	var found *account
	for _, acc := range s.accounts {
		if acc.user.Username == req.Username && acc.password == req.Password {
			found = acc
			break
		}
	}
	s.mu.Unlock()

	switch {
	case found == nil:
		fieldError(c, "non_field_errors", "Invalid credentials")
		return
	case !found.user.IsActive:
		fieldError(c, "non_field_errors", "User account is disabled.")
		return
	case found.user.Role != req.Role:
		fieldError(c, "non_field_errors", "You are not authorized to log in as "+req.Role+".")
		return
	}

	if !s.issueAccess(c, found.user) || !s.issueRefresh(c, found.user) {
		return
	}
	c.JSON(http.StatusOK, usermodel.AuthResponse{User: found.user, Message: "Login successful"})
}

func (s *Server) refreshToken(c *gin.Context) {
	s.refreshCalls.Add(1)
	if hook := s.refreshHook.Load(); hook != nil {
		(*hook)()
	}

	if s.failRefresh.Load() {
		detail(c, http.StatusUnauthorized, DetailRefreshFailed)
		return
	}

	token, err := c.Cookie(RefreshCookie)
	if err != nil || token == "" {
		detail(c, http.StatusUnauthorized, DetailRefreshFailed)
		return
	}
	claims, err := utils.ParseToken(s.secret, token)
	if err != nil {
		detail(c, http.StatusUnauthorized, DetailRefreshFailed)
		return
	}

	s.mu.Lock()
	_, valid := s.refresh[claims.ID]
	acc := s.accounts[claims.UserID]
	s.mu.Unlock()
	if !valid || acc == nil {
		detail(c, http.StatusUnauthorized, DetailRefreshFailed)
		return
	}

	if !s.issueAccess(c, acc.user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed"})
}

func (s *Server) logout(c *gin.Context) {
	if token, err := c.Cookie(RefreshCookie); err == nil {
		if claims, err := utils.ParseToken(s.secret, token); err == nil {
			s.mu.Lock()
			delete(s.refresh, claims.ID)
			s.mu.Unlock()
		}
	}
	for _, name := range []string{AccessCookie, RefreshCookie} {
		http.SetCookie(c.Writer, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (s *Server) getProfile(c *gin.Context) {
	s.mu.Lock()
	u := s.accounts[c.GetInt64(ctxUserID)].user
	s.mu.Unlock()
	c.JSON(http.StatusOK, u)
}

func (s *Server) updateProfile(c *gin.Context) {
	var req usermodel.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		detail(c, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accounts[c.GetInt64(ctxUserID)]
	if req.Username != "" {
		for id, other := range s.accounts {
			if id != acc.user.ID && strings.EqualFold(other.user.Username, req.Username) {
				fieldError(c, "username", "A user with that username already exists.")
				return
			}
		}
		acc.user.Username = req.Username
	}
	if req.FirstName != "" {
		acc.user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		acc.user.LastName = req.LastName
	}
	if req.Email != "" {
		acc.user.Email = req.Email
	}
	if req.ProfilePic != "" {
		acc.user.ProfilePic = req.ProfilePic
	}
	c.JSON(http.StatusOK, usermodel.AuthResponse{User: acc.user, Message: "Profile updated"})
}
