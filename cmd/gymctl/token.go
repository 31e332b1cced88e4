package main

import (
	"fmt"
	"os"
	"time"

	"gymcore-backend-go/internal/policy"
	"gymcore-backend-go/internal/services"

	"github.com/spf13/cobra"
)

var tokenOpts struct {
	user   string
	role   string
	gym    string
	secret string
	issuer string
	ttl    time.Duration
}

// tokenCmd mints an access token for local testing against a server that
// shares the secret.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign a development access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		role, ok := policy.ParseRole(tokenOpts.role)
		if !ok {
			return fmt.Errorf("unknown role %q", tokenOpts.role)
		}
		if tokenOpts.user == "" || tokenOpts.secret == "" {
			return fmt.Errorf("--user and --secret (or JWT_SECRET) are required")
		}
		p := policy.Principal{ID: tokenOpts.user, Role: role}
		if tokenOpts.gym != "" {
			gym := tokenOpts.gym
			p.GymID = &gym
		}
		tokens := services.TokenService{
			Secret:    []byte(tokenOpts.secret),
			Issuer:    tokenOpts.issuer,
			AccessTTL: tokenOpts.ttl,
		}
		signed, _, err := tokens.CreateAccessToken(p)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), signed)
		return nil
	},
}

func init() {
	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = "gymcore"
	}
	f := tokenCmd.Flags()
	f.StringVar(&tokenOpts.user, "user", "", "user id (sub claim)")
	f.StringVar(&tokenOpts.role, "role", "athlete", "super_admin, gym_admin, coach or athlete")
	f.StringVar(&tokenOpts.gym, "gym", "", "gym id")
	f.StringVar(&tokenOpts.secret, "secret", os.Getenv("JWT_SECRET"), "signing secret")
	f.StringVar(&tokenOpts.issuer, "issuer", issuer, "issuer claim")
	f.DurationVar(&tokenOpts.ttl, "ttl", time.Hour, "token lifetime")
}
