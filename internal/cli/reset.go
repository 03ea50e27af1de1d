package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// resetTables is every table holding user data, children first.
// Classifications are kept so the site nav survives a reset.
var resetTables = []string{
	"review_replies",
	"reviews",
	"messages",
	"inventory",
	"account",
}

var errNotConfirmed = errors.New("refusing to reset without --yes")

func NewResetCommand(opts *RootOptions) *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all accounts, vehicles, messages and reviews",
		Long: `Empty every data table and restart its id sequence. Intended for test
databases only. Classifications are left in place.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errNotConfirmed
			}
			return opts.withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				return resetData(ctx, cmd, pool)
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm that all data should be deleted")
	return cmd
}

func resetData(ctx context.Context, cmd *cobra.Command, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range resetTables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", table)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Database reset. Create a manager with: dealerctl account create --role Manager")
	return nil
}
