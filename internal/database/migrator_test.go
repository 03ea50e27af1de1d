package database

import (
	"testing"
	"testing/fstest"

	"github.com/dgeemedia/cse340-backend/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilesOrderedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":    {Data: []byte("SELECT 1;")},
		"002_second.sql":   {Data: []byte("SELECT 1;")},
		"001_first.sql":    {Data: []byte("SELECT 1;")},
		"999_reset_db.sql": {Data: []byte("DROP SCHEMA public;")},
		"README.md":        {Data: []byte("notes")},
	}

	files, err := MigrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_first.sql", "002_second.sql", "010_later.sql"}, files)
}

func TestEmbeddedMigrationsCoverSchema(t *testing.T) {
	files, err := MigrationFiles(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001_accounts.sql", files[0])
	assert.Contains(t, files, "003_messages.sql")
	assert.Contains(t, files, "004_reviews.sql")
}
