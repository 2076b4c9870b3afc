package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/service"
)

const adminPasswordEnv = "OBEDIO_ADMIN_PASSWORD"

var (
	adminUsername string
	adminPassword string
	adminCrewID   string
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Account management",
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long: `Create an admin account.

The password is read from --password or, when omitted, from ` + adminPasswordEnv + `.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		password := adminPassword
		if password == "" {
			password = os.Getenv(adminPasswordEnv)
		}
		if password == "" {
			return errors.New("password required: use --password or " + adminPasswordEnv)
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		svc := service.NewUserService(repository.NewRepository(e.db), e.logger)
		user, err := svc.CreateUser(ctx, &dto.CreateUserRequest{
			Username:     adminUsername,
			Password:     password,
			Role:         string(model.RoleAdmin),
			CrewMemberID: adminCrewID,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVarP(&adminUsername, "username", "u", "admin", "login name")
	createAdminCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "password (min 8 characters)")
	createAdminCmd.Flags().StringVar(&adminCrewID, "crew-member-id", "", "link the account to a crew profile")
	usersCmd.AddCommand(createAdminCmd)
}
