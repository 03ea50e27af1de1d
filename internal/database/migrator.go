package database

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrator applies the embedded schema files in filename order and records
// each one in schema_migrations so it runs exactly once.
type Migrator struct {
	pool  *pgxpool.Pool
	files fs.FS
}

// NewMigrator creates a new migration runner over the given SQL files.
func NewMigrator(pool *pgxpool.Pool, files fs.FS) *Migrator {
	return &Migrator{
		pool:  pool,
		files: files,
	}
}

// Pending lists migration files that have not been applied yet.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	if err := m.createMigrationsTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	all, err := MigrationFiles(m.files)
	if err != nil {
		return nil, err
	}

	var pending []string
	for _, name := range all {
		if !applied[name] {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

// RunMigrations executes all pending migrations. Each file runs in its own
// transaction together with its tracking row.
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Println("[Migrator] Starting database migrations...")

	pending, err := m.Pending(ctx)
	if err != nil {
		return err
	}

	for _, filename := range pending {
		content, err := fs.ReadFile(m.files, filename)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		log.Printf("[Migrator] Running: %s", filename)
		err = pgx.BeginFunc(ctx, m.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(content)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (filename) VALUES ($1) ON CONFLICT (filename) DO NOTHING`,
				filename)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s: %w", filename, err)
		}
	}

	if len(pending) > 0 {
		log.Printf("[Migrator] Applied %d new migration(s)", len(pending))
	} else {
		log.Println("[Migrator] Database is up to date")
	}
	return nil
}

// MigrationFiles returns the .sql files in fsys sorted by name. Files whose
// name contains "reset" are destructive and never applied automatically.
func MigrationFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") || strings.Contains(name, "reset") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		);
	`

	_, err := m.pool.Exec(ctx, query)
	return err
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		applied[filename] = true
	}

	return applied, rows.Err()
}
