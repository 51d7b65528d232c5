package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/photovault/pkg/app"
)

var (
	// 配置文件路径，默认当前目录.
	configPath string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the photovault HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.NewApp(configPath).Run()
		},
	}
)

// registerServeCommand 注册 serve 子命令.
func registerServeCommand() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "./", "path to the config file or directory")

	rootCmd.AddCommand(serveCmd)
}
