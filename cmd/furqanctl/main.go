// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command furqanctl is the operator CLI for Al Furqan.
//
// It talks to PostgreSQL directly and needs only DATABASE_URL (and
// MIGRATION_PATH for the migrate commands). Signing keys are not required.
package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/taibuivan/alfurqan/internal/platform/config"
	"github.com/taibuivan/alfurqan/internal/platform/constants"
	pgstore "github.com/taibuivan/alfurqan/internal/platform/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

const defaultMigrationPath = "./data/migrations"

// options holds the persistent flags shared by every subcommand.
type options struct {
	databaseURL   string
	migrationPath string
	verbose       bool
}

// database resolves connection settings. Flags win over the environment.
func (o *options) database() (*config.Database, error) {
	if o.databaseURL != "" {
		return &config.Database{
			DatabaseURL:   o.databaseURL,
			MigrationPath: cmp.Or(o.migrationPath, defaultMigrationPath),
		}, nil
	}
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, err
	}
	if o.migrationPath != "" {
		cfg.MigrationPath = o.migrationPath
	}
	return cfg, nil
}

func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// connect opens a pool and hands it to fn, closing it afterwards.
func (o *options) connect(cmd *cobra.Command, fn func(pool *pgxpool.Pool) error) error {
	cfg, err := o.database()
	if err != nil {
		return err
	}
	pool, err := pgstore.NewPool(cmd.Context(), cfg.DatabaseURL, o.logger(cmd))
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(pool)
}

func rootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "furqanctl",
		Short:         "Operate an Al Furqan deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Operator commands for the Al Furqan moderation service.

Examples:
  furqanctl migrate up
  furqanctl bootstrap-admin --email root@alfurqan.app
  furqanctl audit --type tafsir --id 0190a8f4-...
  furqanctl queue depth --type note
`,
	}

	cmd.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL URL (defaults to $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.migrationPath, "migrations", "", "Migrations directory (defaults to $MIGRATION_PATH)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(
		migrateCmd(opts),
		bootstrapAdminCmd(opts),
		auditCmd(opts),
		queueCmd(opts),
		versionCmd(),
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "furqanctl %s\n", constants.AppVersion)
		},
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
