package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/yeisme/notesphere/pkg/configs"
	kv "github.com/yeisme/notesphere/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store related commands",
		Aliases: []string{"keyvalue"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list registered kv backends, * marks the configured one",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			names := make([]string, 0)
			for _, t := range kv.GetRegisteredKVTypes() {
				names = append(names, string(t))
			}

			printBackends(cmd.OutOrStdout(), "kv", names, string(configs.GetConfig().KV.Type))
		},
	}
)

// printBackends 按名称排序输出，当前配置的后端前加 *.
func printBackends(w io.Writer, kind string, names []string, active string) {
	sort.Strings(names)
	fmt.Fprintf(w, "Registered %s types:\n", kind)

	for _, n := range names {
		mark := " "
		if n == active {
			mark = "*"
		}

		fmt.Fprintf(w, " %s %s\n", mark, n)
	}
}

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd)
}
