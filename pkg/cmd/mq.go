package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/notesphere/pkg/configs"
	mq "github.com/yeisme/notesphere/pkg/internal/storage/mq"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Domain event transport commands",
		Aliases: []string{"messagequeue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list registered mq backends, * marks the configured one",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			names := make([]string, 0)
			for _, t := range mq.GetRegisteredMQTypes() {
				names = append(names, string(t))
			}

			printBackends(cmd.OutOrStdout(), "mq", names, string(configs.GetConfig().MQ.Type))
		},
	}
)

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd)
}
