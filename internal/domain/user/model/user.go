package model

import "time"

// 角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户模型
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	ProfilePic string    `json:"profile_pic,omitempty"`
	Role       string    `json:"role"`
	IsActive   bool      `json:"is_active"`
	DateJoined time.Time `json:"date_joined"`
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// FullName 姓名，缺省时回退到用户名
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// LoginRequest 登录请求，role 决定以普通用户还是管理员身份登录
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=user admin"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=30,username"`
	FirstName       string `json:"first_name" validate:"required,startsletter"`
	LastName        string `json:"last_name" validate:"required,startsletter"`
	Email           string `json:"email" validate:"required,emailaddr"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// UpdateProfileRequest 修改资料，空字段不提交
type UpdateProfileRequest struct {
	Username   string `json:"username,omitempty" validate:"omitempty,min=3,max=30,username"`
	FirstName  string `json:"first_name,omitempty" validate:"omitempty,startsletter"`
	LastName   string `json:"last_name,omitempty" validate:"omitempty,startsletter"`
	Email      string `json:"email,omitempty" validate:"omitempty,emailaddr"`
	ProfilePic string `json:"profile_pic,omitempty" validate:"omitempty,url"`
}

// AuthResponse 登录和修改资料接口返回 {"user": {...}}
type AuthResponse struct {
	User    User   `json:"user"`
	Message string `json:"message,omitempty"`
}
