package utils

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultPageSize 后端固定的分页大小
const DefaultPageSize = 10

// Page 分页响应结果
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NextURL 返回下一页地址，没有下一页时为空
func (p Page[T]) NextURL() string {
	if p.Next == nil {
		return ""
	}
	return *p.Next
}

// Pagination 分页请求参数
type Pagination struct {
	Page     int
	Search   string
	IsActive *bool
}

// Values 转换为查询参数，零值字段不输出
func (p Pagination) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.IsActive != nil {
		v.Set("is_active", strconv.FormatBool(*p.IsActive))
	}
	return v
}

// TotalPages 计算总页数
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// IsFirstPage 判断一次列表请求是否为第一页：没有 page 参数或 page=1
func IsFirstPage(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	page := u.Query().Get("page")
	return page == "" || page == "1"
}

// RelativePath 把后端返回的 next 地址（绝对地址或以 / 开头）转换为相对 base 的路径
// base 为客户端配置的 API 根地址，其路径部分（如 /api/）会被去掉；已经是相对路径时原样返回
func RelativePath(rawURL, base string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if !u.IsAbs() && !strings.HasPrefix(u.Path, "/") {
		return rawURL
	}

	basePath := "/"
	if b, err := url.Parse(base); err == nil && b.Path != "" {
		basePath = strings.TrimSuffix(b.Path, "/") + "/"
	}

	p := u.EscapedPath()
	rel, ok := strings.CutPrefix(p, basePath)
	if !ok {
		rel = strings.TrimPrefix(p, "/")
	}
	if u.RawQuery != "" {
		rel += "?" + u.RawQuery
	}
	return rel
}
