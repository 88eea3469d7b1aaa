package main

import (
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload images to the asset host and print their URLs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := readFiles(args)
		if err != nil {
			return err
		}
		urls, err := cli.Uploader.Upload(cmd.Context(), files)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), urls)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
