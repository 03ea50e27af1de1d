// Package cli implements dealerctl, the operator tool for schema migrations,
// staff accounts and test database resets.
package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dgeemedia/cse340-backend/internal/config"
	"github.com/dgeemedia/cse340-backend/internal/db"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Timeout time.Duration

	// Connect opens the database. Tests replace it.
	Connect func(ctx context.Context) (*pgxpool.Pool, error)
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Connect: connectFromConfig}

	cmd := &cobra.Command{
		Use:   "dealerctl",
		Short: "Administer the CSE Motors database",
		Long:  "Apply schema migrations, manage staff accounts and reset a test database.",

		SilenceErrors: true,
	}
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "timeout for each database operation")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewAccountCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	return cmd
}

func connectFromConfig(ctx context.Context) (*pgxpool.Pool, error) {
	cfg := config.LoadForTools()
	pool, err := pgxpool.New(ctx, db.DSN(cfg))
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// withPool runs fn against a fresh pool bounded by the global timeout.
func (o *RootOptions) withPool(cmd *cobra.Command, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), o.Timeout)
	defer cancel()

	pool, err := o.Connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}
