package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoDatabase = errors.New("no database in tests")

// offlineOptions fails every connection attempt and records whether one
// was made.
func offlineOptions(connected *bool) *RootOptions {
	return &RootOptions{
		Timeout: time.Second,
		Connect: func(context.Context) (*pgxpool.Pool, error) {
			*connected = true
			return nil, errNoDatabase
		},
	}
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	for _, path := range [][]string{
		{"migrate"},
		{"migrate", "status"},
		{"account", "create"},
		{"account", "set-role"},
		{"reset"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestReset_RequiresConfirmation(t *testing.T) {
	var connected bool
	_, err := execute(NewResetCommand(offlineOptions(&connected)))

	assert.ErrorIs(t, err, errNotConfirmed)
	assert.False(t, connected)
}

func TestReset_ConfirmedConnects(t *testing.T) {
	var connected bool
	_, err := execute(NewResetCommand(offlineOptions(&connected)), "--yes")

	assert.ErrorIs(t, err, errNoDatabase)
	assert.True(t, connected)
}

func TestSetRole_RejectsUnknownRoleBeforeConnecting(t *testing.T) {
	var connected bool
	_, err := execute(NewAccountCommand(offlineOptions(&connected)), "set-role", "a@example.com", "owner")

	assert.Error(t, err)
	assert.False(t, connected)
}

func TestSetRole_NeedsTwoArgs(t *testing.T) {
	var connected bool
	_, err := execute(NewAccountCommand(offlineOptions(&connected)), "set-role", "a@example.com")

	assert.Error(t, err)
	assert.False(t, connected)
}

func TestAccountCreate_RequiresFlags(t *testing.T) {
	var connected bool
	_, err := execute(NewAccountCommand(offlineOptions(&connected)), "create", "--email", "a@example.com")

	assert.Error(t, err)
	assert.False(t, connected)
}

func TestMigrate_PropagatesConnectError(t *testing.T) {
	var connected bool
	_, err := execute(NewMigrateCommand(offlineOptions(&connected)), "status")

	assert.ErrorIs(t, err, errNoDatabase)
	assert.True(t, connected)
}

func TestPrintPending(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, printPending(cmd, nil))
	assert.Equal(t, "No pending migrations.\n", out.String())

	out.Reset()
	require.NoError(t, printPending(cmd, []string{"004_reviews.sql", "005_seed_classifications.sql"}))
	assert.Equal(t, "pending 004_reviews.sql\npending 005_seed_classifications.sql\n", out.String())
}
