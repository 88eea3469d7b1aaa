package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"postify/internal/domain/admin/repository"
	blogmodel "postify/internal/domain/blog/model"
	usermodel "postify/internal/domain/user/model"
	"postify/internal/pkg/transport"
	"postify/pkg/response"
	"postify/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock of transport.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	args := m.Called(req.Method, req.Path, req.Query.Encode())
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transport.Response), args.Error(1)
}

func okResponse(t *testing.T, v any) *transport.Response {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	return &transport.Response{StatusCode: http.StatusOK, Body: body}
}

func ptr[T any](v T) *T { return &v }

func newService() (*MockSender, AdminService, repository.AdminRepository) {
	sender := new(MockSender)
	repo := repository.NewAdminRepository()
	return sender, NewAdminService(sender, repo, nil, "http://api.test/api/"), repo
}

func TestFetchUsers(t *testing.T) {
	sender, svc, _ := newService()

	users := []usermodel.User{{ID: 1, Username: "a", IsActive: true}, {ID: 2, Username: "b", IsActive: true}}
	sender.On("Send", http.MethodGet, "admin/users/", url.Values{"page": {"2"}, "search": {"a"}}.Encode()).
		Return(okResponse(t, utils.Page[usermodel.User]{Count: 21, Results: users}), nil)

	page, err := svc.FetchUsers(context.Background(), utils.Pagination{Page: 2, Search: "a"})

	require.NoError(t, err)
	assert.Equal(t, 21, page.Count)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Users, 2)
	sender.AssertExpectations(t)
}

func TestToggleUserStatus(t *testing.T) {
	sender, svc, repo := newService()
	repo.SetUsers([]usermodel.User{{ID: 1, IsActive: true}, {ID: 2, IsActive: true}}, 2, 1)

	sender.On("Send", http.MethodPost, "admin/users/2/toggle-status/", "").
		Return(okResponse(t, blogmodel.ToggleStatusResult{IsActive: false}), nil)

	active, err := svc.ToggleUserStatus(context.Background(), 2)

	require.NoError(t, err)
	assert.False(t, active)
	users := repo.Users().Users
	assert.True(t, users[0].IsActive)
	assert.False(t, users[1].IsActive)
}

func TestFetchAdminBlogs(t *testing.T) {
	sender, svc, repo := newService()

	next := "http://api.test/api/admin/blogs/?is_active=true&page=2"
	sender.On("Send", http.MethodGet, AdminBlogsPath, "is_active=true").
		Return(okResponse(t, map[string]any{"count": 3, "next": next, "results": []blogmodel.Blog{{ID: 1}, {ID: 2}}}), nil)
	sender.On("Send", http.MethodGet, "admin/blogs/?is_active=true&page=2", "").
		Return(okResponse(t, map[string]any{"count": 3, "next": nil, "results": []blogmodel.Blog{{ID: 2}, {ID: 3}}}), nil)

	_, err := svc.FetchAdminBlogs(context.Background(), BlogFilter{IsActive: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, next, repo.Next())

	_, err = svc.FetchAdminBlogs(context.Background(), BlogFilter{URL: repo.Next(), Search: "ignored"})
	require.NoError(t, err)

	blogs := repo.Blogs()
	require.Len(t, blogs, 3)
	assert.Equal(t, int64(3), blogs[2].ID)
	sender.AssertExpectations(t)
}

func TestToggleBlogStatus(t *testing.T) {
	sender, svc, repo := newService()
	repo.SetBlogs([]blogmodel.Blog{{ID: 1, IsActive: true}}, "", true)

	sender.On("Send", http.MethodPost, "admin/blogs/1/toggle_active/", "").
		Return(okResponse(t, blogmodel.ToggleStatusResult{IsActive: false}), nil)

	active, err := svc.ToggleBlogStatus(context.Background(), 1)

	require.NoError(t, err)
	assert.False(t, active)
	assert.False(t, repo.Blogs()[0].IsActive)
}

func TestToggleCommentStatusStopsAtFirstHit(t *testing.T) {
	sender, svc, repo := newService()
	parent := int64(10)
	repo.SetBlogs([]blogmodel.Blog{
		{ID: 1, Comments: []blogmodel.Comment{{ID: 10, IsActive: true, Replies: []blogmodel.Comment{{ID: 11, ParentID: &parent, IsActive: true}}}}},
		{ID: 2, Comments: []blogmodel.Comment{{ID: 20, IsActive: true}}},
	}, "", true)

	sender.On("Send", http.MethodPost, "admin/comments/11/toggle-status/", "").
		Return(okResponse(t, blogmodel.ToggleStatusResult{IsActive: false}), nil)

	active, err := svc.ToggleCommentStatus(context.Background(), 11)

	require.NoError(t, err)
	assert.False(t, active)
	blogs := repo.Blogs()
	assert.True(t, blogs[0].Comments[0].IsActive)
	assert.False(t, blogs[0].Comments[0].Replies[0].IsActive)
	assert.True(t, blogs[1].Comments[0].IsActive)
}

func TestToggleFailureKeepsState(t *testing.T) {
	sender, svc, repo := newService()
	repo.SetBlogs([]blogmodel.Blog{{ID: 1, IsActive: true}}, "", true)

	sender.On("Send", http.MethodPost, "admin/blogs/1/toggle_active/", "").
		Return(nil, response.NewAPIError(http.StatusForbidden, []byte(`{"detail":"You do not have permission to perform this action."}`)))

	_, err := svc.ToggleBlogStatus(context.Background(), 1)

	assert.ErrorIs(t, err, response.ErrForbidden)
	assert.True(t, repo.Blogs()[0].IsActive)
}

func TestReset(t *testing.T) {
	_, svc, repo := newService()
	repo.SetUsers([]usermodel.User{{ID: 1}}, 1, 1)
	repo.SetBlogs([]blogmodel.Blog{{ID: 1}}, "n", true)

	svc.Reset()

	assert.Empty(t, repo.Users().Users)
	assert.Equal(t, 1, repo.Users().TotalPages)
	assert.Empty(t, repo.Blogs())
	assert.Empty(t, repo.Next())
}

func TestIsFirstAdminPage(t *testing.T) {
	assert.True(t, isFirstAdminPage("admin/blogs/"))
	assert.True(t, isFirstAdminPage("admin/"))
	assert.True(t, isFirstAdminPage("admin/blogs/?page=1"))
	assert.False(t, isFirstAdminPage("admin/blogs/?page=2"))
}
