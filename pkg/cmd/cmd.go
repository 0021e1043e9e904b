// Package cmd contains the command line applications for the project.
package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/notesphere/pkg/app"
	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/storage"
	"github.com/yeisme/notesphere/pkg/log"
)

var (
	configPath string
	debug      bool

	rootCmd = &cobra.Command{
		Use:           "notesphere",
		Short:         "NoteSphere lecture notes sharing service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			if debug {
				configs.GetConfig().Server.Debug = true
			}

			log.Init()

			return nil
		},
		RunE: runServe,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP API server",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(serveCmd)

	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerMQCommands()
	registerAdminCommands()
	registerSeedCommands()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(ctx, configs.GetConfig())
	if err != nil {
		return err
	}

	return a.Run(ctx)
}

// openStorage 为一次性命令创建存储，调用方负责 Close.
func openStorage(ctx context.Context) (*storage.Manager, error) {
	return storage.Build(ctx, configs.GetConfig())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}
