package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/gastolab/centavo/internal/common"
)

// SaveModelBundle stores a trained model bundle for a scope, replacing any
// previous bundle of the same kind in a single atomic write.
func (s *SQLiteStorage) SaveModelBundle(ctx context.Context, scope, kind string, payload []byte) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(scope, "scope"); err != nil {
		return err
	}
	if err := validateString(kind, "kind"); err != nil {
		return err
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload", ErrEmptySlice)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO model_bundles (scope, kind, payload, trained_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, kind) DO UPDATE SET
			payload = excluded.payload,
			trained_at = excluded.trained_at`,
		scope, kind, payload, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save model bundle: %w", err)
	}

	slog.Debug("saved model bundle", "scope", scope, "kind", kind, "bytes", len(payload))
	return nil
}

// GetModelBundle loads the persisted bundle for a scope and kind.
// Returns common.ErrNotFound when no bundle has been trained yet.
func (s *SQLiteStorage) GetModelBundle(ctx context.Context, scope, kind string) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(scope, "scope"); err != nil {
		return nil, err
	}
	if err := validateString(kind, "kind"); err != nil {
		return nil, err
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM model_bundles WHERE scope = ? AND kind = ?`,
		scope, kind,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: model bundle %s/%s", common.ErrNotFound, scope, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query model bundle: %w", err)
	}
	return payload, nil
}
