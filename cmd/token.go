package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/shopfloor/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the API",
	Long:  "Signs an HS256 token with auth.jwt_secret. Intended for operators and service accounts; interactive users get tokens from the login service.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("token"); err != nil {
			return err
		}

		sub, _ := cmd.Flags().GetString("sub")
		username, _ := cmd.Flags().GetString("username")
		roles, _ := cmd.Flags().GetStringSlice("roles")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		if ttl == 0 {
			ttl = time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
		}

		token, err := auth.IssueToken(cfg.Auth.JWTSecret, auth.Principal{
			Subject:  sub,
			Username: username,
			Roles:    cleanRoles(roles),
		}, ttl, time.Now())
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, token)
		return nil
	},
}

func cleanRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func init() {
	tokenCmd.Flags().String("sub", "", "token subject (user id)")
	tokenCmd.Flags().String("username", "", "display username")
	tokenCmd.Flags().StringSlice("roles", nil, "comma-separated roles")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default auth.token_ttl_hours)")
	_ = tokenCmd.MarkFlagRequired("sub")
	rootCmd.AddCommand(tokenCmd)
}
