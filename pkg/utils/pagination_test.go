package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 3, TotalPages(21, 0))
}

func TestIsFirstPage(t *testing.T) {
	assert.True(t, IsFirstPage("admin/blogs/"))
	assert.True(t, IsFirstPage("admin/blogs/?page=1&search=go"))
	assert.False(t, IsFirstPage("admin/blogs/?page=2"))
	assert.False(t, IsFirstPage("http://api.test/api/admin/blogs/?page=10"))
}

func TestRelativePath(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		base string
		want string
	}{
		{"same host", "http://api.test/api/blog/posts/?page=2", "http://api.test/api/", "blog/posts/?page=2"},
		{"root relative", "/api/admin/blogs/?page=3", "http://api.test/api/", "admin/blogs/?page=3"},
		{"other host", "https://other.host/api/admin/blogs/?page=3", "http://api.test/api/", "admin/blogs/?page=3"},
		{"already relative", "blog/posts/", "http://api.test/api/", "blog/posts/"},
		{"custom base path", "http://api.test/v2/rest/blog/posts/?page=2", "http://api.test/v2/rest", "blog/posts/?page=2"},
		{"api segment kept under other base", "http://api.test/v2/api/blog/posts/", "http://api.test/v2/", "api/blog/posts/"},
		{"base at root", "http://api.test/blog/posts/?page=2", "http://api.test", "blog/posts/?page=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativePath(tt.raw, tt.base))
		})
	}
}

func TestPaginationValues(t *testing.T) {
	active := false
	v := Pagination{Page: 2, Search: "go", IsActive: &active}.Values()
	assert.Equal(t, "is_active=false&page=2&search=go", v.Encode())
	assert.Empty(t, Pagination{}.Values().Encode())
}
