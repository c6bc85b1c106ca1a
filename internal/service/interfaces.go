// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/gastolab/centavo/internal/model"
)

// ExpenseFilter defines filtering options for expense queries.
type ExpenseFilter struct {
	Since    *time.Time
	Until    *time.Time
	Category model.Category
	Labeled  bool // only expenses with a category assigned
	Limit    int
	Offset   int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Expense operations
	SaveExpense(ctx context.Context, expense *model.Expense) error
	UpdateExpense(ctx context.Context, expense *model.Expense) error
	GetExpenseByID(ctx context.Context, id string) (*model.Expense, error)
	GetExpenses(ctx context.Context, userID string, filter ExpenseFilter) ([]model.Expense, error)
	CountMatchingDescriptions(ctx context.Context, userID, normalizedText string) (int, error)
	DeleteExpenses(ctx context.Context, userID string, ids []string) (*DeletionSummary, error)
	DeleteExpensesByCategory(ctx context.Context, userID string, category model.Category) (*DeletionSummary, error)

	// Trained model bundles, keyed by scope (user id or the global sentinel)
	SaveModelBundle(ctx context.Context, scope, kind string, payload []byte) error
	GetModelBundle(ctx context.Context, scope, kind string) ([]byte, error)

	// Pattern operations
	UpsertPattern(ctx context.Context, pattern *model.Pattern) error
	GetPatterns(ctx context.Context, userID string) ([]model.Pattern, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// DeletionSummary reports the result of a bulk expense deletion.
type DeletionSummary struct {
	Deleted     []model.Expense
	NotFoundIDs []string
	TotalAmount float64
}

// RetryOptions configures retry behavior for remote calls.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
