package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gastolab/centavo/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrEmptySlice     = errors.New("slice cannot be empty")
	ErrInvalidExpense = errors.New("invalid expense")
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrTooManyIDs     = errors.New("too many ids in one call")
)

// maxBulkDeleteIDs caps a single bulk deletion request.
const maxBulkDeleteIDs = 100

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateExpense validates a single expense.
func validateExpense(e *model.Expense) error {
	if e == nil {
		return fmt.Errorf("%w: expense", ErrNilParameter)
	}
	if e.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidExpense)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidExpense)
	}
	if e.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidExpense)
	}
	if e.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidExpense)
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidExpense, e.Category)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidExpense)
	}
	return nil
}

// validatePattern validates a pattern before persistence.
func validatePattern(p *model.Pattern) error {
	if p == nil {
		return fmt.Errorf("%w: pattern", ErrNilParameter)
	}
	if p.UserID == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidPattern)
	}
	if p.Kind != model.PatternRecurring && p.Kind != model.PatternSeasonal {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPattern, p.Kind)
	}
	if p.Key == "" {
		return fmt.Errorf("%w: missing key", ErrInvalidPattern)
	}
	return nil
}

// validateIDs validates a bulk-deletion id list.
func validateIDs(ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: ids", ErrEmptySlice)
	}
	if len(ids) > maxBulkDeleteIDs {
		return fmt.Errorf("%w: %d ids, maximum is %d", ErrTooManyIDs, len(ids), maxBulkDeleteIDs)
	}
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: id at index %d", ErrEmptyString, i)
		}
	}
	return nil
}
