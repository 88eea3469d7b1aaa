package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"postify/internal/apitest"
	blogmodel "postify/internal/domain/blog/model"
	usermodel "postify/internal/domain/user/model"
	"postify/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, srv *apitest.Server) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`api:
  base_url: %s
session:
  store: file
  path: %s
log:
  level: error
`, srv.BaseURL(), filepath.Join(dir, "session.json"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSessionAcrossInvocations(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddUser("alice", "Secr3t!pass", usermodel.RoleUser)
	cfg := writeConfig(t, srv)

	_, err := run(t, cfg, "login", "alice", "--password", "Secr3t!pass")
	require.NoError(t, err)

	out, err := run(t, cfg, "whoami")
	require.NoError(t, err)
	var user usermodel.User
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	assert.Equal(t, "alice", user.Username)

	_, err = run(t, cfg, "logout")
	require.NoError(t, err)

	_, err = run(t, cfg, "whoami")
	assert.ErrorIs(t, err, response.ErrForbidden)
}

func TestBlogAndCommentCommands(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.AddUser("alice", "Secr3t!pass", usermodel.RoleUser)
	cfg := writeConfig(t, srv)

	_, err := run(t, cfg, "login", "alice", "--password", "Secr3t!pass")
	require.NoError(t, err)

	out, err := run(t, cfg, "blogs", "create", "--title", "Hello", "--content", "World")
	require.NoError(t, err)
	var blog blogmodel.Blog
	require.NoError(t, json.Unmarshal([]byte(out), &blog))
	assert.Equal(t, "Hello", blog.Title)

	id := fmt.Sprint(blog.ID)
	out, err = run(t, cfg, "comments", "add", id, "first")
	require.NoError(t, err)
	var comments []blogmodel.Comment
	require.NoError(t, json.Unmarshal([]byte(out), &comments))
	require.Len(t, comments, 1)

	out, err = run(t, cfg, "comments", "add", id, "second", "--reply-to", fmt.Sprint(comments[0].ID))
	require.NoError(t, err)
	comments = nil
	require.NoError(t, json.Unmarshal([]byte(out), &comments))
	require.Len(t, comments, 1)
	require.Len(t, comments[0].Replies, 1)
	assert.Equal(t, "second", comments[0].Replies[0].Content)

	out, err = run(t, cfg, "blogs", "list")
	require.NoError(t, err)
	var feed []blogmodel.Blog
	require.NoError(t, json.Unmarshal([]byte(out), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, blog.ID, feed[0].ID)

	_, err = run(t, cfg, "blogs", "like", id)
	require.NoError(t, err)
	out, err = run(t, cfg, "blogs", "show", id)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &blog))
	assert.True(t, blog.IsLiked)
	assert.Equal(t, 1, blog.LikeCount)

	_, err = run(t, cfg, "blogs", "delete", id)
	require.NoError(t, err)
	_, err = run(t, cfg, "blogs", "show", id)
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestInvalidID(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	cfg := writeConfig(t, srv)

	_, err := run(t, cfg, "blogs", "show", "abc")
	assert.EqualError(t, err, `invalid id "abc"`)
}
