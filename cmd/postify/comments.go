package main

import (
	blogmodel "postify/internal/domain/blog/model"

	"github.com/spf13/cobra"
)

var replyTo int64

var commentsCmd = &cobra.Command{
	Use:     "comments",
	Aliases: []string{"comment"},
	Short:   "Comment on posts",
}

var commentsAddCmd = &cobra.Command{
	Use:   "add <blog-id> <content>",
	Short: "Comment on a post, or reply to a comment with --reply-to",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		blogID, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		// 先加载博客，新评论才能挂到本地评论树上
		if _, err := cli.Blogs.FetchBlog(ctx, blogID); err != nil {
			return err
		}
		in := blogmodel.CommentInput{Content: args[1]}
		if replyTo > 0 {
			in.ParentID = &replyTo
		}
		if _, err := cli.Blogs.AddComment(ctx, blogID, in); err != nil {
			return err
		}

		blog, _ := cli.Blogs.Repository().Current()
		return printJSON(cmd.OutOrStdout(), blog.Comments)
	},
}

var commentsDeleteCmd = &cobra.Command{
	Use:   "delete <blog-id> <comment-id>",
	Short: "Delete one of your comments together with its replies",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		blogID, err := parseID(args[0])
		if err != nil {
			return err
		}
		commentID, err := parseID(args[1])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		if _, err := cli.Blogs.FetchBlog(ctx, blogID); err != nil {
			return err
		}
		if err := cli.Blogs.DeleteComment(ctx, blogID, commentID); err != nil {
			return err
		}

		blog, _ := cli.Blogs.Repository().Current()
		return printJSON(cmd.OutOrStdout(), blog.Comments)
	},
}

func init() {
	rootCmd.AddCommand(commentsCmd)
	commentsCmd.AddCommand(commentsAddCmd, commentsDeleteCmd)

	commentsAddCmd.Flags().Int64Var(&replyTo, "reply-to", 0, "id of the comment to reply to")
}
