package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/types"
	"github.com/yeisme/notesphere/pkg/rule"
)

var (
	adminReq types.RegisterRequest

	adminCmd = &cobra.Command{
		Use:   "admin",
		Short: "administrator account commands",
	}

	// 管理员账号只能通过命令行创建.
	adminCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rule.ValidateStruct(adminReq); err != nil {
				for field, msg := range rule.Errors(err) {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", field, msg)
				}

				return fmt.Errorf("invalid admin account")
			}

			mgr, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer mgr.Close()

			d := service.Deps{DB: mgr.GetDBClient().DB, Blob: mgr.GetBlobStore()}

			u, err := service.NewAuthServiceWith(d).CreateAccount(cmd.Context(), adminReq, model.RoleAdmin)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (id=%d)\n", u.Email, u.ID)

			return nil
		},
	}
)

// registerAdminCommands 注册管理员命令.
func registerAdminCommands() {
	f := adminCreateCmd.Flags()
	f.StringVar(&adminReq.Name, "name", "Administrator", "display name")
	f.StringVar(&adminReq.Email, "email", "", "login email")
	f.StringVar(&adminReq.Password, "password", "", "login password")
	f.StringVar(&adminReq.Institution, "institution", "NoteSphere", "institution")
	f.StringVar(&adminReq.Level, "level", "Staff", "level")

	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(adminCreateCmd)
	rootCmd.AddCommand(adminCmd)
}
