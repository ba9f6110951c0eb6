// Package token implements the command issuing API access tokens.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/oar-cd/shipyard/app"
	"github.com/oar-cd/shipyard/audit"
	"github.com/oar-cd/shipyard/cmd/output"
	"github.com/oar-cd/shipyard/cmd/utils"
	"github.com/oar-cd/shipyard/domain"
)

const defaultTTL = 24 * time.Hour

func NewCmdToken() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token",
		Long: `Issue a signed bearer token for the HTTP API.

The token carries the user's ID and role. Without --email or --user-id the
token is issued for the built-in operator administrator.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			userID, _ := cmd.Flags().GetString("user-id")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			if ttl <= 0 {
				return fmt.Errorf("invalid ttl %s: must be positive", ttl)
			}

			tokens, err := app.GetTokenService()
			if err != nil {
				return err
			}

			principal, err := resolvePrincipal(email, userID)
			if err != nil {
				return err
			}

			token, err := tokens.IssueToken(principal, ttl)
			if err != nil {
				return utils.CommandError("issuing token", err, "user_id", principal.ID)
			}

			if err := recordIssued(cmd.Context(), principal, ttl); err != nil {
				slog.Warn("Failed to audit token issuance", "user_id", principal.ID, "error", err)
			}

			return output.FprintPlain(cmd, "%s\n", token)
		},
	}

	cmd.Flags().StringP("email", "e", "", "Issue the token for the user with this email")
	cmd.Flags().String("user-id", "", "Issue the token for the user with this ID")
	cmd.Flags().Duration("ttl", defaultTTL, "Token lifetime")
	cmd.MarkFlagsMutuallyExclusive("email", "user-id")
	return cmd
}

func resolvePrincipal(email, userID string) (domain.Principal, error) {
	if email == "" && userID == "" {
		return app.GetOperator()
	}

	users := app.GetUserRepository()
	var (
		user *domain.User
		err  error
	)
	if email != "" {
		user, err = users.FindByEmail(email)
	} else {
		id, parseErr := uuid.Parse(userID)
		if parseErr != nil {
			return domain.Principal{}, fmt.Errorf("invalid user ID '%s': must be a valid UUID", userID)
		}
		user, err = users.FindByID(id)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Principal{}, errors.New("user not found")
	}
	if err != nil {
		return domain.Principal{}, utils.CommandError("looking up user", err)
	}
	return domain.Principal{ID: user.ID, Role: user.Role}, nil
}

func recordIssued(ctx context.Context, principal domain.Principal, ttl time.Duration) error {
	return app.GetAuditRecorder().Record(ctx, audit.Entry{
		Actor:        &principal,
		Action:       domain.AuditActionCreate,
		ResourceType: domain.AuditResourceUser,
		ResourceID:   principal.ID.String(),
		Details:      map[string]any{"event": "token_issued", "ttl": ttl.String()},
		Category:     domain.AuditCategoryAuthentication,
	})
}
