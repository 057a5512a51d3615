// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taibuivan/alfurqan/internal/platform/migration"
)

func migrateCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.database()
			if err != nil {
				return err
			}
			if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, opts.logger(cmd)); err != nil {
				return err
			}
			return printStatus(cmd, opts)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Long: `Roll back the given number of migrations.

Rolling back 000003 drops the audit trail, including its history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			cfg, err := opts.database()
			if err != nil {
				return err
			}
			if err := migration.RunDown(cfg.DatabaseURL, cfg.MigrationPath, steps, opts.logger(cmd)); err != nil {
				return err
			}
			return printStatus(cmd, opts)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStatus(cmd, opts)
		},
	})

	return cmd
}

func printStatus(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.database()
	if err != nil {
		return err
	}
	status, err := migration.CurrentStatus(cfg.DatabaseURL, cfg.MigrationPath, opts.logger(cmd))
	if err != nil {
		return err
	}
	printf(cmd.OutOrStdout(), "%s\n", formatStatus(status))
	return nil
}

func formatStatus(status migration.Status) string {
	switch {
	case status.Empty:
		return "schema: empty"
	case status.Dirty:
		return fmt.Sprintf("schema: version %d (dirty)", status.Version)
	default:
		return fmt.Sprintf("schema: version %d", status.Version)
	}
}
