package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gastolab/centavo/internal/model"
)

// UpsertPattern stores a detected pattern, replacing a previous detection of
// the same (user, kind, key). Analysis runs re-persist their findings, so
// duplicate detections collapse instead of accumulating.
func (s *SQLiteStorage) UpsertPattern(ctx context.Context, pattern *model.Pattern) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePattern(pattern); err != nil {
		return err
	}

	data, err := json.Marshal(pattern.Data)
	if err != nil {
		return fmt.Errorf("failed to encode pattern data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO patterns (
			user_id, kind, key, description, category,
			frequency, avg_amount, confidence, data, detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, kind, key) DO UPDATE SET
			description = excluded.description,
			category = excluded.category,
			frequency = excluded.frequency,
			avg_amount = excluded.avg_amount,
			confidence = excluded.confidence,
			data = excluded.data,
			detected_at = excluded.detected_at`,
		pattern.UserID,
		string(pattern.Kind),
		pattern.Key,
		pattern.Description,
		string(pattern.Category),
		pattern.Frequency,
		pattern.AvgAmount,
		pattern.Confidence,
		string(data),
		pattern.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pattern: %w", err)
	}

	slog.Debug("upserted pattern", "user", pattern.UserID, "kind", pattern.Kind, "key", pattern.Key)
	return nil
}

// GetPatterns returns a user's persisted patterns, highest confidence first.
func (s *SQLiteStorage) GetPatterns(ctx context.Context, userID string) ([]model.Pattern, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, kind, key, description, category,
			frequency, avg_amount, confidence, data, detected_at
		FROM patterns
		WHERE user_id = ?
		ORDER BY confidence DESC, key`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []model.Pattern
	for rows.Next() {
		var p model.Pattern
		var kind, category, data string
		if err := rows.Scan(
			&p.UserID, &kind, &p.Key, &p.Description, &category,
			&p.Frequency, &p.AvgAmount, &p.Confidence, &data, &p.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		p.Kind = model.PatternKind(kind)
		p.Category = model.Category(category)
		if err := json.Unmarshal([]byte(data), &p.Data); err != nil {
			return nil, fmt.Errorf("failed to decode pattern data: %w", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patterns: %w", err)
	}
	return patterns, nil
}
