package model

import "time"

// Comment 评论
// ParentID 为空表示一级评论；回复挂在父评论的 Replies 下
type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	User      Author    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	ParentID  *int64    `json:"parent_comment"`
	Replies   []Comment `json:"replies,omitempty"`
	IsActive  bool      `json:"is_active"`
}

// IsRoot 是否为一级评论
func (c Comment) IsRoot() bool {
	return c.ParentID == nil
}

// CloneComments 深拷贝评论树
func CloneComments(in []Comment) []Comment {
	if in == nil {
		return nil
	}
	out := make([]Comment, len(in))
	for i, c := range in {
		c.Replies = CloneComments(c.Replies)
		out[i] = c
	}
	return out
}

// CommentInput 发表评论的输入
type CommentInput struct {
	Content  string `json:"content" validate:"required"`
	ParentID *int64 `json:"parent_comment,omitempty"`
}

// ToggleStatusResult 管理员切换屏蔽状态接口的返回
type ToggleStatusResult struct {
	IsActive bool   `json:"is_active"`
	Message  string `json:"message,omitempty"`
}
