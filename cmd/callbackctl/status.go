package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ArowuTest/topup-callback/internal/repositories/store"
	"github.com/ArowuTest/topup-callback/internal/services"
	"github.com/spf13/cobra"
)

func statusCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "status [request-id]",
		Short: "Show the stored outcome of a top-up request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			log := env.logger(cfg)

			ctx := context.Background()
			st, err := store.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close(context.Background()) }()

			svc := services.NewCallbackService(
				services.NewSignatureVerifier(cfg.Provider, log),
				services.NewStatusNormalizer(cfg.Provider.UnknownStatusFallback),
				st.Topups,
				services.NopNotifier{},
				nil,
				log,
			)
			result, err := svc.Lookup(ctx, args[0])
			if err != nil {
				return fmt.Errorf("lookup %s: %w", args[0], err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
