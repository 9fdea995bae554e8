package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/freeeve/territory/internal/auth"
)

var tokenExpiry time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token <operator>",
	Short: "Issue an operator token for the HTTP API",
	Long:  `Signs a token with JWT_SECRET that authorizes solve and self-play requests.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := auth.NewJWTManager(cfg.JWTSecret, tokenExpiry).GenerateToken(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenExpiry, "expiry", auth.DefaultExpiry, "token lifetime")
}
