package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"notedai/api/config"
	"notedai/api/db"
	"notedai/api/pkg/logger"
	"notedai/api/pkg/security"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "notedai",
		Short:         "Noted.AI account and session API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file path (defaults to ./config.toml)")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())

	return rootCmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			defer zap.L().Sync()

			store := newStore(cfg, security.New())
			defer store.Close()

			if _, err := store.Connect(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate database, %w", err)
			}

			zap.L().Info("Database schema is up to date")
			return nil
		},
	}
}

// setup loads the config and replaces the global logger
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Setup(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config, %w", err)
	}

	if _, err := logger.Setup(cfg.LogLevel, cfg.Production()); err != nil {
		return nil, fmt.Errorf("failed to set up logger, %w", err)
	}

	return cfg, nil
}

func newStore(cfg *config.Config, hasher *security.ArgonHash) *db.Store {
	return db.New(db.Options{
		Driver:         cfg.DatabaseDriver,
		DSN:            cfg.DatabaseDSN,
		ConnectTimeout: cfg.DatabaseConnectTimeout,
		Hasher:         hasher,
	})
}
