package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ArowuTest/topup-callback/internal/repositories/store"
	"github.com/ArowuTest/topup-callback/internal/services"
	"github.com/ArowuTest/topup-callback/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func importCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "import [csv-file]",
		Short: "Register pending top-up requests from a CSV file",
		Long: `Read a CSV with a header row (request_id, owner_ref, telco, denomination,
expected_amount) and register every row as a pending request in the configured store.
Rows that already exist are counted as duplicates.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.config()
			if err != nil {
				return err
			}
			log := env.logger(cfg)
			defer func() { _ = log.Sync() }()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			ctx := context.Background()
			st, err := store.Open(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close(context.Background()) }()

			requests := services.NewRequestService(st.Topups, log)
			importer := utils.NewCSVImporter(utils.RegistrarFunc(func(ctx context.Context, in services.RegisterInput) error {
				_, err := requests.Register(ctx, in)
				return err
			}))

			result, err := importer.ImportRequests(ctx, f)
			if err != nil {
				return err
			}
			log.Info("Import finished",
				zap.Int("rows", result.TotalRows),
				zap.Int("created", result.Created),
				zap.Int("duplicates", result.Duplicates),
				zap.Int("errors", len(result.Errors)),
			)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
