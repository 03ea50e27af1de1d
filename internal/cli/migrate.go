package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dgeemedia/cse340-backend/internal/database"
	"github.com/dgeemedia/cse340-backend/migrations"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply pending schema migrations",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				m := database.NewMigrator(pool, migrations.FS)
				pending, err := m.Pending(ctx)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
					return nil
				}
				if err := m.RunMigrations(ctx); err != nil {
					return err
				}
				for _, name := range pending {
					fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:          "status",
		Short:        "List migrations that have not been applied",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				pending, err := database.NewMigrator(pool, migrations.FS).Pending(ctx)
				if err != nil {
					return err
				}
				return printPending(cmd, pending)
			})
		},
	})
	return cmd
}

func printPending(cmd *cobra.Command, pending []string) error {
	if len(pending) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No pending migrations.")
		return err
	}
	for _, name := range pending {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "pending %s\n", name); err != nil {
			return err
		}
	}
	return nil
}
