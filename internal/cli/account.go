package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dgeemedia/cse340-backend/internal/models"
	"github.com/dgeemedia/cse340-backend/internal/repositories"
	"github.com/dgeemedia/cse340-backend/internal/services"
)

func NewAccountCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newAccountCreateCommand(opts))
	cmd.AddCommand(newAccountSetRoleCommand(opts))
	return cmd
}

func newAccountCreateCommand(opts *RootOptions) *cobra.Command {
	var (
		req  models.RegisterRequest
		role string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account with any role",
		Long: `Create an account directly in the database. This is the only way to
create the first Manager, who can then promote other accounts from the site.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := models.ParseRole(role)
			if err != nil {
				return err
			}
			return opts.withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				accounts := services.NewAccountService(repositories.NewAccountRepository(pool), nil, nil)
				account, err := accounts.Create(ctx, req, parsed)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s account %d for %s\n", account.Role, account.ID, account.Email)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.FirstName, "first", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last", "", "last name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleClient), "Client, Employee or Manager")
	for _, name := range []string{"first", "last", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newAccountSetRoleCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "set-role <email> <role>",
		Short:        "Change the role of an existing account",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.ToLower(strings.TrimSpace(args[0]))
			role, err := models.ParseRole(args[1])
			if err != nil {
				return err
			}
			return opts.withPool(cmd, func(ctx context.Context, pool *pgxpool.Pool) error {
				accounts := services.NewAccountService(repositories.NewAccountRepository(pool), nil, nil)
				account, err := accounts.SetRole(ctx, email, role)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", account.Email, account.Role)
				return nil
			})
		},
	}
}

// describe turns validation failures into one readable error.
func describe(err error) error {
	if messages := services.ValidationMessages(err); len(messages) > 0 {
		return fmt.Errorf("%s", strings.Join(messages, " "))
	}
	if errors.Is(err, services.ErrNotFound) {
		return fmt.Errorf("no account with that email")
	}
	return err
}
