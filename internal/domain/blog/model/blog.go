package model

import "time"

// MaxImages 每篇博客最多 3 张图片
const MaxImages = 3

// Author 作者快照，由服务端维护，客户端只读
type Author struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profile_pic,omitempty"`
}

// Blog 博客
type Blog struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image1    *string   `json:"image_1"`
	Image2    *string   `json:"image_2"`
	Image3    *string   `json:"image_3"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`

	LikeCount int  `json:"like_count"`
	IsLiked   bool `json:"is_liked"`
	ReadCount int  `json:"read_count"`
	IsRead    bool `json:"is_read"`

	// 关联
	Comments []Comment `json:"comments"`

	// 管理员屏蔽标记
	IsActive bool `json:"is_active"`
}

// ImageURLs 返回非空的图片地址，按 image_1..image_3 顺序
func (b *Blog) ImageURLs() []string {
	urls := make([]string, 0, MaxImages)
	for _, img := range []*string{b.Image1, b.Image2, b.Image3} {
		if img != nil && *img != "" {
			urls = append(urls, *img)
		}
	}
	return urls
}

// Clone 深拷贝，评论树也一并复制
func (b Blog) Clone() Blog {
	b.Comments = CloneComments(b.Comments)
	return b
}

// BlogInput 创建/编辑博客的输入
type BlogInput struct {
	Title   string   `json:"title" validate:"required,noleadingspecial"`
	Content string   `json:"content" validate:"required,noleadingspecial"`
	Images  []string `json:"-" validate:"max=3,dive,url"`
}

// blogPayload 提交给后端的结构，缺少的图片显式传 null
type blogPayload struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Image1  *string `json:"image_1"`
	Image2  *string `json:"image_2"`
	Image3  *string `json:"image_3"`
}

// Payload 转换为后端请求体
func (in BlogInput) Payload() any {
	p := blogPayload{Title: in.Title, Content: in.Content}
	slots := []**string{&p.Image1, &p.Image2, &p.Image3}
	for i, img := range in.Images {
		if i >= MaxImages {
			break
		}
		img := img
		*slots[i] = &img
	}
	return p
}

// LikeResult 点赞/阅读接口的返回
type LikeResult struct {
	Message string `json:"message"`
}
