// Package report computes user-facing spending summaries. Monetary sums use
// exact decimal arithmetic; the ML pipeline keeps its own float features.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/service"
)

// DefaultWindowDays is the trailing window the stats cover.
const DefaultWindowDays = 30

// UserStats summarizes a user's recent spending.
type UserStats struct {
	ByCategory            map[model.Category]decimal.Decimal
	ByWeekday             map[int]decimal.Decimal
	ByHour                map[int]decimal.Decimal
	Total                 decimal.Decimal
	DailyAverage          decimal.Decimal
	ExpenseCount          int
	RecurringDescriptions int
	WindowDays            int
}

// Reporter computes spending statistics from storage.
type Reporter struct {
	store service.Storage
	now   func() time.Time
}

// NewReporter creates a reporter reading from the given storage.
func NewReporter(store service.Storage) *Reporter {
	return &Reporter{store: store, now: time.Now}
}

// Stats computes the trailing-window summary for a user. A user with no
// expenses in the window gets a zeroed summary, not an error.
func (r *Reporter) Stats(ctx context.Context, userID string, windowDays int) (*UserStats, error) {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	since := r.now().AddDate(0, 0, -windowDays)
	expenses, err := r.store.GetExpenses(ctx, userID, service.ExpenseFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses for stats: %w", err)
	}

	stats := &UserStats{
		WindowDays:   windowDays,
		ExpenseCount: len(expenses),
		ByCategory:   make(map[model.Category]decimal.Decimal),
		ByWeekday:    make(map[int]decimal.Decimal),
		ByHour:       make(map[int]decimal.Decimal),
		Total:        decimal.Zero,
		DailyAverage: decimal.Zero,
	}
	if len(expenses) == 0 {
		return stats, nil
	}

	descCounts := make(map[string]int)
	for i := range expenses {
		e := &expenses[i]
		amount := decimal.NewFromFloat(e.Amount)

		stats.Total = stats.Total.Add(amount)
		stats.ByCategory[e.Category] = stats.ByCategory[e.Category].Add(amount)
		stats.ByWeekday[e.Weekday] = stats.ByWeekday[e.Weekday].Add(amount)
		stats.ByHour[e.Hour] = stats.ByHour[e.Hour].Add(amount)
		descCounts[e.NormalizedText]++
	}

	for _, n := range descCounts {
		if n > 1 {
			stats.RecurringDescriptions++
		}
	}

	stats.DailyAverage = stats.Total.DivRound(decimal.NewFromInt(int64(windowDays)), 2)
	return stats, nil
}
