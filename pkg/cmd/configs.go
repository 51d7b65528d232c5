package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/photovault/pkg/configs"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "config not initialized")

				return nil
			}

			cfg := v.ConfigFileUsed()
			if cfg == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (maybe using defaults or env)")

				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), cfg)

			return nil
		},
	}

	// 打印生效配置，凭证字段脱敏后输出.
	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the current config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "config not initialized.")

				return nil
			}

			if debug {
				v.Debug()
			}

			c := *configs.GetConfig()
			redactConfig(&c)

			b, err := json.MarshalIndent(c, "", "  ")
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "failed to marshal config to JSON:", err)

				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

const redacted = "[redacted]"

// redactConfig 把凭证类字段替换为占位符，避免 debug 输出泄露密钥.
func redactConfig(c *configs.AppConfig) {
	if c.S3.SecretAccessKey != "" {
		c.S3.SecretAccessKey = redacted
	}

	if c.DB.Password != "" {
		c.DB.Password = redacted
	}

	if c.MQ.Common.Password != "" {
		c.MQ.Common.Password = redacted
	}

	if c.MQ.Redis.Password != "" {
		c.MQ.Redis.Password = redacted
	}

	if c.KV.Redis.Password != "" {
		c.KV.Redis.Password = redacted
	}

	if c.KV.NATS.Password != "" {
		c.KV.NATS.Password = redacted
	}
}

// registerConfigsCommands 注册 CLI 子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(pathCmd)
	configCmd.AddCommand(debugCmd)

	rootCmd.AddCommand(configCmd)
}
