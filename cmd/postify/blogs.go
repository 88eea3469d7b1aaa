package main

import (
	"context"
	"fmt"
	"strconv"

	blogmodel "postify/internal/domain/blog/model"
	blogservice "postify/internal/domain/blog/service"
	"postify/internal/pkg/uploader"

	"github.com/spf13/cobra"
)

var (
	listPage int
	listAll  bool

	blogTitle   string
	blogContent string
	blogImages  []string
)

var blogsCmd = &cobra.Command{
	Use:     "blogs",
	Aliases: []string{"blog"},
	Short:   "Read and write blog posts",
}

var blogsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the feed, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		pageURL := ""
		if listPage > 1 {
			pageURL = fmt.Sprintf("%s?page=%d", blogservice.FeedPath, listPage)
		}

		if _, err := cli.Blogs.FetchBlogs(ctx, pageURL); err != nil {
			return err
		}
		// --all 跟随 next 地址直到最后一页
		for listAll && cli.Blogs.Repository().Next() != "" {
			if _, err := cli.Blogs.FetchBlogs(ctx, cli.Blogs.Repository().Next()); err != nil {
				return err
			}
		}
		return printJSON(cmd.OutOrStdout(), cli.Blogs.Repository().Feed())
	},
}

var blogsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List the posts of the logged in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		blogs, err := cli.Blogs.FetchMyBlogs(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), blogs)
	},
}

var blogsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one post with its comment tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		blog, err := cli.Blogs.FetchBlog(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), blog)
	},
}

var blogsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a post, uploading up to three local images",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		urls, err := uploadImages(cmd.Context(), blogImages)
		if err != nil {
			return err
		}
		blog, err := cli.Blogs.CreateBlog(cmd.Context(), blogmodel.BlogInput{Title: blogTitle, Content: blogContent, Images: urls})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), blog)
	},
}

var blogsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit one of your posts; images not given are removed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		current, err := cli.Blogs.FetchBlog(ctx, id)
		if err != nil {
			return err
		}
		in := blogmodel.BlogInput{Title: current.Title, Content: current.Content}
		if cmd.Flags().Changed("title") {
			in.Title = blogTitle
		}
		if cmd.Flags().Changed("content") {
			in.Content = blogContent
		}
		if in.Images, err = uploadImages(ctx, blogImages); err != nil {
			return err
		}

		blog, err := cli.Blogs.UpdateBlog(ctx, id, in)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), blog)
	},
}

var blogsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your posts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := cli.Blogs.DeleteBlog(cmd.Context(), id); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": id})
	},
}

var blogsLikeCmd = &cobra.Command{
	Use:   "like <id>",
	Short: "Like or unlike a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		msg, err := cli.Blogs.ToggleLike(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), blogmodel.LikeResult{Message: msg})
	},
}

var blogsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a post as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		msg, err := cli.Blogs.MarkRead(cmd.Context(), id)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), blogmodel.LikeResult{Message: msg})
	},
}

func init() {
	rootCmd.AddCommand(blogsCmd)
	blogsCmd.AddCommand(blogsListCmd, blogsMineCmd, blogsShowCmd, blogsCreateCmd, blogsEditCmd, blogsDeleteCmd, blogsLikeCmd, blogsReadCmd)

	blogsListCmd.Flags().IntVar(&listPage, "page", 1, "page number")
	blogsListCmd.Flags().BoolVar(&listAll, "all", false, "follow next links until the last page")

	for _, c := range []*cobra.Command{blogsCreateCmd, blogsEditCmd} {
		c.Flags().StringVar(&blogTitle, "title", "", "post title")
		c.Flags().StringVar(&blogContent, "content", "", "post content")
		c.Flags().StringSliceVar(&blogImages, "image", nil, "local image file, repeat up to three times")
	}
	_ = blogsCreateCmd.MarkFlagRequired("title")
	_ = blogsCreateCmd.MarkFlagRequired("content")
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// uploadImages 读取本地图片并上传，返回的地址与参数顺序一致
func uploadImages(ctx context.Context, paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	if len(paths) > blogmodel.MaxImages {
		return nil, fmt.Errorf("at most %d images per post", blogmodel.MaxImages)
	}
	files, err := readFiles(paths)
	if err != nil {
		return nil, err
	}
	return cli.Uploader.Upload(ctx, files)
}

func readFiles(paths []string) ([]uploader.File, error) {
	files := make([]uploader.File, 0, len(paths))
	for _, p := range paths {
		f, err := uploader.FromPath(p, cli.Config.Cloudinary.MaxFileSize)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
