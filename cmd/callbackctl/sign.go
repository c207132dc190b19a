package main

import (
	"errors"
	"fmt"

	"github.com/ArowuTest/topup-callback/internal/services"
	"github.com/spf13/cobra"
)

func signCmd(env *cliEnv) *cobra.Command {
	var code, serial string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Compute the provider signature for a card code and serial",
		Long: `Compute md5(secret_key + code + serial) with the configured provider secret.
Useful for replaying a callback by hand against a running receiver.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			if cfg.Provider.SecretKey == "" {
				return errors.New("provider.secret_key is not configured")
			}
			fmt.Fprintln(cmd.OutOrStdout(), services.SignPayload(cfg.Provider.SecretKey, code, serial))
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Card code")
	cmd.Flags().StringVar(&serial, "serial", "", "Card serial")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("serial")
	return cmd
}
