// Package user implements commands for managing API users.
package user

import (
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
	"github.com/oar-cd/shipyard/domain"
)

func NewCmdUser() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}

	cmd.AddCommand(NewCmdUserAdd())
	cmd.AddCommand(NewCmdUserList())
	return cmd
}

func NewCmdUserAdd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		Long:  "Create a user who can be issued API tokens. Users own the projects they create; administrators can access every project.",
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")
			roleFlag, _ := cmd.Flags().GetString("role")

			email = strings.TrimSpace(email)
			if _, err := mail.ParseAddress(email); err != nil {
				return fmt.Errorf("invalid email '%s'", email)
			}
			role, err := domain.ParseRole(strings.ToUpper(roleFlag))
			if err != nil {
				return err
			}

			users := app.GetUserRepository()
			if _, err := users.FindByEmail(email); err == nil {
				return fmt.Errorf("user with email '%s' already exists", email)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.CommandError("looking up user", err)
			}

			operator, err := utils.Operator("adding user")
			if err != nil {
				return err
			}

			created, err := users.Create(&domain.User{
				ID:    uuid.New(),
				Email: email,
				Name:  strings.TrimSpace(name),
				Role:  role,
			})
			if err != nil {
				return utils.CommandError("creating user", err, "email", email)
			}

			if err := app.GetAuditRecorder().Record(cmd.Context(), audit.Entry{
				Actor:        &operator,
				Action:       domain.AuditActionCreate,
				ResourceType: domain.AuditResourceUser,
				ResourceID:   created.ID.String(),
				NewValues:    map[string]any{"email": created.Email, "role": string(created.Role)},
			}); err != nil {
				slog.Warn("Failed to audit user creation", "user_id", created.ID, "error", err)
			}

			return output.FprintSuccess(cmd, "User %s created with ID %s\n", created.Email, created.ID)
		},
	}

	cmd.Flags().StringP("email", "e", "", "User email")
	cmd.Flags().StringP("name", "n", "", "Display name")
	cmd.Flags().StringP("role", "r", string(domain.RoleUser), "Role (USER or ADMIN)")
	if err := cmd.MarkFlagRequired("email"); err != nil {
		panic(fmt.Sprintf("CLI setup error: %v", err)) // This is a setup error, should panic
	}
	return cmd
}

func NewCmdUserList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := app.GetUserRepository().List()
			if err != nil {
				return utils.CommandError("listing users", err)
			}

			out, err := output.PrintUserList(users)
			if err != nil {
				return utils.CommandError("printing user list table", err)
			}
			return output.FprintPlain(cmd, "%s", out)
		},
	}
}
