package apitest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"testing"

	blogmodel "postify/internal/domain/blog/model"
	usermodel "postify/internal/domain/user/model"
	"postify/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func post(t *testing.T, c *http.Client, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := c.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, c *http.Client, url string) *http.Response {
	t.Helper()
	resp, err := c.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestAuthFlow(t *testing.T) {
	s := NewServer()
	defer s.Close()
	s.AddUser("alice", "pw", usermodel.RoleUser)
	c := newClient(t)

	t.Run("no credentials", func(t *testing.T) {
		resp := get(t, c, s.BaseURL()+"blog/posts/")
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("wrong role", func(t *testing.T) {
		resp := post(t, c, s.BaseURL()+"user/login/", usermodel.LoginRequest{Username: "alice", Password: "pw", Role: usermodel.RoleAdmin})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("login then expire", func(t *testing.T) {
		resp := post(t, c, s.BaseURL()+"user/login/", usermodel.LoginRequest{Username: "alice", Password: "pw"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = get(t, c, s.BaseURL()+"user/get-profile/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		s.ExpireSessions()
		resp = get(t, c, s.BaseURL()+"user/get-profile/")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		var body map[string]string
		decode(t, resp, &body)
		assert.Equal(t, DetailTokenInvalid, body["detail"])

		resp = post(t, c, s.BaseURL()+"user/token/refresh/", struct{}{})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 1, s.RefreshCalls())

		resp = get(t, c, s.BaseURL()+"user/get-profile/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("forced refresh failure", func(t *testing.T) {
		s.FailRefresh(true)
		defer s.FailRefresh(false)
		resp := post(t, c, s.BaseURL()+"user/token/refresh/", struct{}{})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestFeedPagination(t *testing.T) {
	s := NewServer()
	defer s.Close()
	alice := s.AddUser("alice", "pw", usermodel.RoleUser)
	for i := 0; i < 15; i++ {
		s.AddBlog(alice.ID, "t", "c")
	}
	c := newClient(t)
	post(t, c, s.BaseURL()+"user/login/", usermodel.LoginRequest{Username: "alice", Password: "pw"})

	var page utils.Page[blogmodel.Blog]
	decode(t, get(t, c, s.BaseURL()+"blog/posts/"), &page)
	assert.Equal(t, 15, page.Count)
	assert.Len(t, page.Results, pageSize)
	require.NotNil(t, page.Next)
	assert.Equal(t, s.URL+"/api/blog/posts/?page=2", *page.Next)
	assert.Nil(t, page.Previous)

	var second utils.Page[blogmodel.Blog]
	decode(t, get(t, c, *page.Next), &second)
	assert.Len(t, second.Results, 5)
	assert.Nil(t, second.Next)
	// 新的在前
	assert.Greater(t, page.Results[0].ID, second.Results[0].ID)
}

func TestCommentTreeRendering(t *testing.T) {
	s := NewServer()
	defer s.Close()
	alice := s.AddUser("alice", "pw", usermodel.RoleUser)
	blog := s.AddBlog(alice.ID, "t", "c")
	c := newClient(t)
	post(t, c, s.BaseURL()+"user/login/", usermodel.LoginRequest{Username: "alice", Password: "pw"})

	commentURL := s.BaseURL() + "blog/" + strconv.FormatInt(blog.ID, 10) + "/comment/"
	var root blogmodel.Comment
	decode(t, post(t, c, commentURL, blogmodel.CommentInput{Content: "root"}), &root)
	var reply blogmodel.Comment
	decode(t, post(t, c, commentURL, blogmodel.CommentInput{Content: "reply", ParentID: &root.ID}), &reply)

	bad := int64(999)
	resp := post(t, c, commentURL, blogmodel.CommentInput{Content: "x", ParentID: &bad})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var got blogmodel.Blog
	decode(t, get(t, c, s.BaseURL()+"blog/posts/"+strconv.FormatInt(blog.ID, 10)+"/"), &got)
	require.Len(t, got.Comments, 1)
	require.Len(t, got.Comments[0].Replies, 1)
	assert.Equal(t, reply.ID, got.Comments[0].Replies[0].ID)

	s.DeleteCommentDirect(root.ID)
	got = blogmodel.Blog{}
	decode(t, get(t, c, s.BaseURL()+"blog/posts/"+strconv.FormatInt(blog.ID, 10)+"/"), &got)
	assert.Empty(t, got.Comments)
}
