package main

import (
	"errors"
	"fmt"
	"time"

	pkgjwt "github.com/ArowuTest/topup-callback/pkg/jwt"
	"github.com/spf13/cobra"
)

func tokenCmd(env *cliEnv) *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the intake API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if cfg.JWT.Secret == "" {
				return errors.New("jwt.secret is not configured")
			}
			if ttl <= 0 {
				ttl = time.Duration(cfg.JWT.ExpiresIn) * time.Second
			}
			token, err := pkgjwt.NewTokenService(cfg.JWT.Secret, ttl).Issue(subject, pkgjwt.ScopeIntake)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Token subject (originating service)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: jwt.expires_in)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
