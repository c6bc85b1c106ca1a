package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS expenses (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					description TEXT NOT NULL,
					normalized_text TEXT NOT NULL DEFAULT '',
					amount REAL NOT NULL,
					category TEXT NOT NULL,
					confidence REAL DEFAULT 0,
					date DATETIME NOT NULL,
					weekday INTEGER NOT NULL DEFAULT 0,
					hour INTEGER NOT NULL DEFAULT 12,
					is_weekend INTEGER NOT NULL DEFAULT 0,
					day_part TEXT NOT NULL DEFAULT 'tarde',
					description_freq INTEGER NOT NULL DEFAULT 1,
					is_recurring INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_expenses_user ON expenses(user_id)`,
				`CREATE INDEX idx_expenses_user_date ON expenses(user_id, date)`,
				`CREATE INDEX idx_expenses_normalized ON expenses(normalized_text)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add trained model bundles",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS model_bundles (
					scope TEXT NOT NULL,
					kind TEXT NOT NULL,
					payload BLOB NOT NULL,
					trained_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (scope, kind)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add detected patterns with dedup key",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS patterns (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					user_id TEXT NOT NULL,
					kind TEXT NOT NULL,
					key TEXT NOT NULL,
					description TEXT NOT NULL,
					category TEXT NOT NULL,
					frequency REAL NOT NULL,
					avg_amount REAL NOT NULL,
					confidence REAL NOT NULL,
					data TEXT NOT NULL DEFAULT '{}',
					detected_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(user_id, kind, key)
				)`,
				`CREATE INDEX idx_patterns_user ON patterns(user_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending migrations in order.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w",
				migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		slog.Info("applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	return nil
}
