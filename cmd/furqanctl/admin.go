// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"cmp"
	"errors"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/taibuivan/alfurqan/internal/users"
)

// adminPasswordEnv lets automation pass the password without it showing up
// in the process list.
const adminPasswordEnv = "FURQAN_ADMIN_PASSWORD"

func bootstrapAdminCmd(opts *options) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the first administrator account",
		Long: `Create the "admin" account with the admin role.

Nothing happens when an administrator already exists, so the command is
safe to run on every deploy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password = cmp.Or(password, os.Getenv(adminPasswordEnv))
			if email == "" || password == "" {
				return errors.New("--email and --password (or $" + adminPasswordEnv + ") are required")
			}

			return opts.connect(cmd, func(pool *pgxpool.Pool) error {
				// Bootstrapping issues no tokens.
				service := users.NewService(users.NewPostgresStore(pool), nil)

				acc, err := service.BootstrapAdmin(cmd.Context(), email, password)
				if err != nil {
					return err
				}
				if acc == nil {
					printf(cmd.OutOrStdout(), "an administrator already exists; nothing to do\n")
					return nil
				}
				printf(cmd.OutOrStdout(), "created administrator %s (%s)\n", acc.Username, acc.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&password, "password", "", "Administrator password (or $"+adminPasswordEnv+")")
	return cmd
}
