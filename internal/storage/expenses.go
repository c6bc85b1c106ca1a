package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gastolab/centavo/internal/common"
	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/service"
)

const expenseColumns = `id, user_id, description, normalized_text, amount, category,
	confidence, date, weekday, hour, is_weekend, day_part, description_freq,
	is_recurring, created_at, updated_at`

// SaveExpense inserts a new expense with its derived fields.
func (s *SQLiteStorage) SaveExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (
			id, user_id, description, normalized_text, amount, category,
			confidence, date, weekday, hour, is_weekend, day_part,
			description_freq, is_recurring, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID,
		expense.UserID,
		expense.Description,
		expense.NormalizedText,
		expense.Amount,
		string(expense.Category),
		expense.Confidence,
		expense.Date,
		expense.Weekday,
		expense.Hour,
		boolToInt(expense.IsWeekend),
		string(expense.DayPart),
		expense.DescriptionFreq,
		boolToInt(expense.IsRecurring),
		now,
		now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("%w: expense %s", common.ErrDuplicateEntry, expense.ID)
		}
		return fmt.Errorf("failed to save expense: %w", err)
	}

	slog.Debug("saved expense", "id", expense.ID, "user", expense.UserID, "category", expense.Category)
	return nil
}

// UpdateExpense rewrites an edited expense, derived fields included.
func (s *SQLiteStorage) UpdateExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE expenses SET
			description = ?, normalized_text = ?, amount = ?, category = ?,
			confidence = ?, date = ?, weekday = ?, hour = ?, is_weekend = ?,
			day_part = ?, description_freq = ?, is_recurring = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		expense.Description,
		expense.NormalizedText,
		expense.Amount,
		string(expense.Category),
		expense.Confidence,
		expense.Date,
		expense.Weekday,
		expense.Hour,
		boolToInt(expense.IsWeekend),
		string(expense.DayPart),
		expense.DescriptionFreq,
		boolToInt(expense.IsRecurring),
		time.Now().UTC(),
		expense.ID,
		expense.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: expense %s", common.ErrNotFound, expense.ID)
	}
	return nil
}

// GetExpenseByID fetches a single expense.
func (s *SQLiteStorage) GetExpenseByID(ctx context.Context, id string) (*model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)

	expense, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: expense %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query expense: %w", err)
	}
	return expense, nil
}

// GetExpenses returns a user's expenses matching the filter, newest first.
// An empty userID matches every user, which is how global model training
// gathers its pool.
func (s *SQLiteStorage) GetExpenses(ctx context.Context, userID string, filter service.ExpenseFilter) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE 1=1`
	var args []any

	if userID != "" {
		query += ` AND user_id = ?`
		args = append(args, userID)
	}

	if filter.Since != nil {
		query += ` AND date >= ?`
		args = append(args, filter.Since.UTC())
	}
	if filter.Until != nil {
		query += ` AND date < ?`
		args = append(args, filter.Until.UTC())
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if filter.Labeled {
		query += ` AND category != ''`
	}

	query += ` ORDER BY date DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

// CountMatchingDescriptions counts a user's expenses whose normalized text
// contains the given fragment. Substring containment is the recurrence
// signal the feature pipeline expects.
func (s *SQLiteStorage) CountMatchingDescriptions(ctx context.Context, userID, normalizedText string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return 0, err
	}
	if normalizedText == "" {
		return 0, nil
	}

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM expenses
		WHERE user_id = ? AND normalized_text LIKE ? ESCAPE '\'`,
		userID, "%"+escapeLike(normalizedText)+"%",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matching descriptions: %w", err)
	}
	return count, nil
}

// DeleteExpenses removes the given expenses of a user and reports what was
// removed, including ids that did not exist.
func (s *SQLiteStorage) DeleteExpenses(ctx context.Context, userID string, ids []string) (*service.DeletionSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateIDs(ids); err != nil {
		return nil, err
	}

	summary := &service.DeletionSummary{}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		row := tx.QueryRowContext(ctx,
			`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`,
			id, userID)
		expense, err := scanExpense(row)
		if err == sql.ErrNoRows {
			summary.NotFoundIDs = append(summary.NotFoundIDs, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load expense %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID); err != nil {
			return nil, fmt.Errorf("failed to delete expense %s: %w", id, err)
		}
		summary.Deleted = append(summary.Deleted, *expense)
		summary.TotalAmount += expense.Amount
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deletion: %w", err)
	}

	slog.Info("deleted expenses",
		"user", userID,
		"deleted", len(summary.Deleted),
		"not_found", len(summary.NotFoundIDs))
	return summary, nil
}

// DeleteExpensesByCategory removes every expense of a user in one category.
func (s *SQLiteStorage) DeleteExpensesByCategory(ctx context.Context, userID string, category model.Category) (*service.DeletionSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if !category.Valid() {
		return nil, fmt.Errorf("%w: category %q", ErrInvalidExpense, category)
	}

	expenses, err := s.GetExpenses(ctx, userID, service.ExpenseFilter{Category: category})
	if err != nil {
		return nil, err
	}

	summary := &service.DeletionSummary{Deleted: expenses}
	for _, e := range expenses {
		summary.TotalAmount += e.Amount
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE user_id = ? AND category = ?`,
		userID, string(category)); err != nil {
		return nil, fmt.Errorf("failed to delete expenses by category: %w", err)
	}
	return summary, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*model.Expense, error) {
	var e model.Expense
	var category, dayPart string
	var isWeekend, isRecurring int

	err := row.Scan(
		&e.ID, &e.UserID, &e.Description, &e.NormalizedText, &e.Amount,
		&category, &e.Confidence, &e.Date, &e.Weekday, &e.Hour,
		&isWeekend, &dayPart, &e.DescriptionFreq, &isRecurring,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Category = model.Category(category)
	e.DayPart = model.DayPart(dayPart)
	e.IsWeekend = isWeekend != 0
	e.IsRecurring = isRecurring != 0
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeLike escapes LIKE wildcards in user-derived text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
