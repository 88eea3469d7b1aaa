package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"postify/internal/app"
	"postify/internal/pkg/config"
	"postify/pkg/logger"
	"postify/pkg/response"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"

	cfgFile string
	verbose bool

	// 当前命令使用的客户端，在 PersistentPreRunE 中创建
	cli *app.App
)

var rootCmd = &cobra.Command{
	Use:   "postify",
	Short: "Command line client for the postify blogging API",
	Long: `postify talks to the blogging REST API on behalf of one user.
The session cookies are kept in the configured session store, so a login
survives between invocations. Every command prints JSON on stdout.`,
	Version:            version,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default is ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
}

// Execute 执行根命令，错误以用户可读的形式输出到 stderr
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", response.UserMessage(err))
		return 1
	}
	return 0
}

func setup(cmd *cobra.Command, _ []string) error {
	// 上一次执行出错时不会走到 teardown
	if err := teardown(cmd, nil); err != nil {
		return err
	}

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log, err := logger.New(level, cfg.App.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	cli, err = app.New(cmd.Context(), cfg, log)
	if err != nil {
		_ = log.Sync()
		return err
	}
	log.Debug("client ready", zap.String("base_url", cfg.API.BaseURL), zap.String("session_store", cfg.Session.Store))
	return nil
}

func teardown(*cobra.Command, []string) error {
	if cli == nil {
		return nil
	}
	_ = cli.Logger.Sync()
	err := cli.Close()
	cli = nil
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
