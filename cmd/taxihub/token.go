package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taxihub/internal/infra"
)

var (
	tokenRole string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <uid>",
	Short: "Issue a signed bearer token (admin by default) using auth.jwt_secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Auth.JWTSecret == "" {
			return errors.New("auth.jwt_secret is not configured")
		}
		tok, err := infra.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer).Issue(args[0], tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", "admin", "role claim (admin or provider)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 12*time.Hour, "token lifetime")
}
