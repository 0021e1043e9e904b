package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/notesphere/pkg/configs"
)

const masked = "******"

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "config subcommands",
	}

	pathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the path of the current config file",
		Run: func(cmd *cobra.Command, args []string) {
			v := configs.GetViper()
			if v == nil || v.ConfigFileUsed() == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no config file used (defaults and NOTESPHERE_* env)")
				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), v.ConfigFileUsed())
		},
	}

	// 打印生效配置，JWT 密钥与各后端密码打码.
	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				return fmt.Errorf("config not initialized")
			}

			if debug {
				v.Debug()
			}

			b, err := json.MarshalIndent(redactConfig(*configs.GetConfig()), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// redactConfig 在副本上打码，不影响全局配置.
func redactConfig(c configs.AppConfig) configs.AppConfig {
	for _, s := range []*string{
		&c.Auth.JWTSecret,
		&c.DB.Password,
		&c.S3.SecretAccessKey,
		&c.KV.Redis.Password,
		&c.KV.NATS.Password,
		&c.MQ.Common.Password,
		&c.MQ.Redis.Password,
		&c.MQ.NATS.NKey,
	} {
		if *s != "" {
			*s = masked
		}
	}

	return c
}

// registerConfigsCommands 注册 CLI 子命令.
func registerConfigsCommands() {
	configCmd.AddCommand(pathCmd)
	configCmd.AddCommand(debugCmd)

	rootCmd.AddCommand(configCmd)
}
