// Package transport 是访问后端 REST API 的唯一出口。
// 认证失败的请求交给 session.Guard 统一刷新会话后重放一次。
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"postify/pkg/response"
)

// Request 出站请求
type Request struct {
	Method string
	// Path 相对 API 根地址，如 "blog/posts/"；也可以是后端返回的绝对 next 地址
	Path   string
	Query  url.Values
	Body   any // 非 nil 时按 JSON 编码
	Header http.Header

	retried bool
}

// Retried 请求是否已因认证失败重放过
func (r *Request) Retried() bool {
	return r.retried
}

func (r *Request) forRetry() *Request {
	c := *r
	c.retried = true
	return &c
}

// Response 已读取完毕的响应
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode 将响应体按 JSON 解码到 v
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}

// Sender 传输层契约
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// AuthFailureFunc 判断一个失败响应是否为可通过刷新会话恢复的认证失败
type AuthFailureFunc func(resp *Response) bool

// TokenAuthFailure 默认判定：401/403 且 detail 提到 token
func TokenAuthFailure(resp *Response) bool {
	if resp == nil {
		return false
	}
	return response.IsTokenFailure(resp.StatusCode, resp.Body)
}

// Get/Post/Patch/Delete 构造常用请求

func Get(path string, query url.Values) *Request {
	return &Request{Method: http.MethodGet, Path: path, Query: query}
}

func Post(path string, body any) *Request {
	return &Request{Method: http.MethodPost, Path: path, Body: body}
}

func Patch(path string, body any) *Request {
	return &Request{Method: http.MethodPatch, Path: path, Body: body}
}

func Delete(path string) *Request {
	return &Request{Method: http.MethodDelete, Path: path}
}
