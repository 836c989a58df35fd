package cli

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/turtacn/crn/internal/app"
	"github.com/turtacn/crn/internal/application/dto"
	"github.com/turtacn/crn/internal/interfaces/http/middleware"
)

func newBusinessCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "business",
		Short: "Manage tenant businesses",
	}

	var id, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a business",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withContainer(cmd.Context(), func(c *app.Container) error {
				b, err := c.Business.CreateBusiness(cmd.Context(), &dto.CreateBusinessRequest{ID: id, Name: name})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), b)
			})
		},
	}
	create.Flags().StringVar(&id, "id", "", "business id (uuid, generated when empty)")
	create.Flags().StringVar(&name, "name", "", "business display name")
	_ = create.MarkFlagRequired("name")

	var tenantID, role string
	var ttl time.Duration
	token := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for a business",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			signed, err := issueToken([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, tenantID, role, ttl, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), signed)
			return err
		},
	}
	token.Flags().StringVar(&tenantID, "tenant", "", "business id to embed as tenant_id")
	token.Flags().StringVar(&role, "role", "", "optional role claim, e.g. admin")
	token.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = token.MarkFlagRequired("tenant")

	cmd.AddCommand(create, token)
	return cmd
}

func issueToken(secret []byte, issuer, tenantID, role string, ttl time.Duration, now time.Time) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	claims := middleware.TenantClaims{
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   tenantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
