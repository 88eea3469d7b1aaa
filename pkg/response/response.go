package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// DefaultMessage 无法从响应中提取提示信息时使用
const DefaultMessage = "Something went wrong"

// APIError 非 2xx 响应
// 后端错误体形如 {"detail": "..."} 或 {"username": ["..."], "non_field_errors": ["..."]}
type APIError struct {
	StatusCode int
	Detail     string
	Fields     map[string][]string
	Body       []byte
}

// NewAPIError 根据状态码和响应体构造 APIError，响应体不是 JSON 时只保留原文
func NewAPIError(status int, body []byte) *APIError {
	e := &APIError{
		StatusCode: status,
		Body:       body,
		Fields:     map[string][]string{},
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return e
	}

	for key, val := range raw {
		if key == "detail" {
			_ = json.Unmarshal(val, &e.Detail)
			continue
		}
		var list []string
		if err := json.Unmarshal(val, &list); err == nil {
			e.Fields[key] = list
			continue
		}
		var single string
		if err := json.Unmarshal(val, &single); err == nil {
			e.Fields[key] = []string{single}
		}
	}
	return e
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("api error %d", e.StatusCode)
}

// Unwrap 使 errors.Is(err, ErrNotFound) 等判断成立
func (e *APIError) Unwrap() error {
	return classify(e.StatusCode)
}

// FieldError 按给定字段顺序返回第一个字段错误
func (e *APIError) FieldError(keys ...string) string {
	for _, k := range keys {
		if msgs := e.Fields[k]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

// Message 返回最适合展示给用户的提示：detail 优先，其次 non_field_errors，最后按字段名排序取第一个
func (e *APIError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if msg := e.FieldError("non_field_errors"); msg != "" {
		return msg
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(e.Fields[k]) > 0 {
			return k + ": " + e.Fields[k][0]
		}
	}
	return ""
}

// IsTokenFailure 默认的认证失败判定：401/403 且 detail 中提到 token
func IsTokenFailure(status int, body []byte) bool {
	if !IsAuthClass(status) {
		return false
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(payload.Detail), "token")
}

// UserMessage 从任意错误中提取提示：APIError 按 keys 顺序取字段错误，否则取 Message
// 不是 APIError 时返回 err.Error()
func UserMessage(err error, keys ...string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	if msg := apiErr.FieldError(keys...); msg != "" {
		return msg
	}
	if msg := apiErr.Message(); msg != "" {
		return msg
	}
	return DefaultMessage
}
