package history

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/askmongo/askmongo/internal/logging"
)

// Migration is a single versioned schema change with its rollback.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// MigrationManager applies and rolls back schema migrations, tracking
// applied versions in a schema_migrations table.
type MigrationManager struct {
	db *sql.DB
}

func NewMigrationManager(db *sql.DB) *MigrationManager {
	return &MigrationManager{db: db}
}

// GetMigrations returns all known migrations in version order.
func (m *MigrationManager) GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Initial run history schema",
			Up: `
				CREATE TABLE IF NOT EXISTS runs (
					id VARCHAR PRIMARY KEY,
					asked_at TIMESTAMP NOT NULL,
					question TEXT NOT NULL,
					validated_question TEXT,
					is_valid BOOLEAN NOT NULL,
					generated_query TEXT,
					query_success BOOLEAN NOT NULL,
					query_error TEXT,
					answer TEXT,
					summarized_answer TEXT,
					query_retries INTEGER NOT NULL,
					summary_retries INTEGER NOT NULL,
					duration_ms BIGINT NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_runs_asked_at ON runs(asked_at);
				CREATE INDEX IF NOT EXISTS idx_runs_query_success ON runs(query_success);
			`,
			Down: `
				DROP INDEX IF EXISTS idx_runs_query_success;
				DROP INDEX IF EXISTS idx_runs_asked_at;
				DROP TABLE IF EXISTS runs;
			`,
		},
	}
}

// InitializeMigrationTable creates the version tracking table.
func (m *MigrationManager) InitializeMigrationTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description VARCHAR NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	return nil
}

// GetAppliedMigrations returns the set of applied migration versions.
func (m *MigrationManager) GetAppliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	defer rows.Close()

	applied := make(map[int]bool)

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}

		applied[version] = true
	}

	return applied, rows.Err()
}

// inTx runs fn inside a transaction, committing only if fn succeeds.
func (m *MigrationManager) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

// ApplyMigration runs a migration's Up statements and records the
// version, failing if the version was already applied.
func (m *MigrationManager) ApplyMigration(ctx context.Context, mig Migration) error {
	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	if applied[mig.Version] {
		return fmt.Errorf("migration %d already applied", mig.Version)
	}

	return m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, mig.Up); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", mig.Version, err)
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			mig.Version, mig.Description)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", mig.Version, err)
		}

		return nil
	})
}

// RollbackMigration runs a migration's Down statements and removes the
// version record, failing if the version was never applied.
func (m *MigrationManager) RollbackMigration(ctx context.Context, mig Migration) error {
	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	if !applied[mig.Version] {
		return fmt.Errorf("migration %d not applied", mig.Version)
	}

	return m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, mig.Down); err != nil {
			return fmt.Errorf("failed to roll back migration %d: %w", mig.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM schema_migrations WHERE version = ?", mig.Version); err != nil {
			return fmt.Errorf("failed to delete migration record %d: %w", mig.Version, err)
		}

		return nil
	})
}

// MigrateUp applies every pending migration in version order.
func (m *MigrationManager) MigrateUp(ctx context.Context) error {
	if err := m.InitializeMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	migrations := m.GetMigrations()
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })

	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}

		logging.Debugf("Applying migration %d: %s", mig.Version, mig.Description)

		if err := m.ApplyMigration(ctx, mig); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown rolls back applied migrations newest first until only
// versions at or below targetVersion remain.
func (m *MigrationManager) MigrateDown(ctx context.Context, targetVersion int) error {
	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return err
	}

	byVersion := make(map[int]Migration)
	for _, mig := range m.GetMigrations() {
		byVersion[mig.Version] = mig
	}

	versions := make([]int, 0, len(applied))
	for version := range applied {
		versions = append(versions, version)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(versions)))

	for _, version := range versions {
		if version <= targetVersion {
			break
		}

		mig, ok := byVersion[version]
		if !ok {
			return fmt.Errorf("no migration registered for applied version %d", version)
		}

		logging.Debugf("Rolling back migration %d: %s", version, mig.Description)

		if err := m.RollbackMigration(ctx, mig); err != nil {
			return err
		}
	}

	return nil
}
