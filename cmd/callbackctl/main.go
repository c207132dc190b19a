package main

import (
	"fmt"
	"os"

	"github.com/ArowuTest/topup-callback/internal/config"
	"github.com/ArowuTest/topup-callback/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliEnv carries the flags shared by every subcommand.
type cliEnv struct {
	configPath string
}

func (e *cliEnv) config() (*config.Config, error) {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

func (e *cliEnv) logger(cfg *config.Config) *zap.Logger {
	log, err := logger.New(cfg.LogLevel, "console")
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{}
	rootCmd := &cobra.Command{
		Use:           "callbackctl",
		Short:         "Operator tooling for the top-up callback receiver",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&env.configPath, "config", "c", "", "Path to a config file (default: ./config.yaml)")

	rootCmd.AddCommand(signCmd(env))
	rootCmd.AddCommand(importCmd(env))
	rootCmd.AddCommand(tokenCmd(env))
	rootCmd.AddCommand(statusCmd(env))

	return rootCmd
}
