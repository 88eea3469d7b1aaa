package main

import (
	"context"
	"strconv"

	adminservice "postify/internal/domain/admin/service"
	"postify/pkg/utils"

	"github.com/spf13/cobra"
)

var (
	adminPage   int
	adminSearch string
	adminActive string
	adminNext   string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Moderation commands, requires an administrator login",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users, ten per page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		active, err := parseActive(adminActive)
		if err != nil {
			return err
		}
		page, err := cli.Admin.FetchUsers(cmd.Context(), utils.Pagination{Page: adminPage, Search: adminSearch, IsActive: active})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), page)
	},
}

var adminBlogsCmd = &cobra.Command{
	Use:   "blogs",
	Short: "List every post, including hidden ones",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		active, err := parseActive(adminActive)
		if err != nil {
			return err
		}
		page, err := cli.Admin.FetchAdminBlogs(cmd.Context(), adminservice.BlogFilter{URL: adminNext, Search: adminSearch, IsActive: active})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), page)
	},
}

func toggleCmd(use, short string, toggle func(adminservice.AdminService) func(context.Context, int64) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			active, err := toggle(cli.Admin)(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"id": id, "is_active": active})
		},
	}
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(
		adminUsersCmd,
		adminBlogsCmd,
		toggleCmd("toggle-user", "Activate or deactivate a user", func(s adminservice.AdminService) func(context.Context, int64) (bool, error) {
			return s.ToggleUserStatus
		}),
		toggleCmd("toggle-blog", "Hide or show a post", func(s adminservice.AdminService) func(context.Context, int64) (bool, error) {
			return s.ToggleBlogStatus
		}),
		toggleCmd("toggle-comment", "Hide or show a comment", func(s adminservice.AdminService) func(context.Context, int64) (bool, error) {
			return s.ToggleCommentStatus
		}),
	)

	for _, c := range []*cobra.Command{adminUsersCmd, adminBlogsCmd} {
		c.Flags().StringVar(&adminSearch, "search", "", "search text")
		c.Flags().StringVar(&adminActive, "active", "", "filter by status: true or false")
	}
	adminUsersCmd.Flags().IntVar(&adminPage, "page", 1, "page number")
	adminBlogsCmd.Flags().StringVar(&adminNext, "next", "", "next page URL returned by a previous call")
}

// parseActive 空字符串表示不筛选
func parseActive(s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
