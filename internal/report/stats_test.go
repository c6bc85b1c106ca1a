package report

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gastolab/centavo/internal/feature"
	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return store
}

func saveExpense(t *testing.T, store *storage.SQLiteStorage, id, text string, amount float64, category model.Category, date time.Time) {
	t.Helper()
	temporal := feature.ExtractTemporal(date)
	err := store.SaveExpense(context.Background(), &model.Expense{
		ID:             id,
		UserID:         "user-1",
		Description:    text,
		NormalizedText: text,
		Amount:         amount,
		Category:       category,
		Date:           date,
		Weekday:        temporal.Weekday,
		Hour:           temporal.Hour,
		DayPart:        temporal.DayPart,
	})
	if err != nil {
		t.Fatalf("Failed to save expense %s: %v", id, err)
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	// Two coffees, one taxi, plus one expense outside the window.
	saveExpense(t, store, "e1", "cafe diario", 3.50, model.CategoryFood, now.AddDate(0, 0, -1))
	saveExpense(t, store, "e2", "cafe diario", 3.50, model.CategoryFood, now.AddDate(0, 0, -3))
	saveExpense(t, store, "e3", "taxi centro", 12.25, model.CategoryTransport, now.AddDate(0, 0, -2))
	saveExpense(t, store, "old", "cena vieja", 40, model.CategoryFood, now.AddDate(0, 0, -45))

	r := NewReporter(store)
	r.now = func() time.Time { return now }

	stats, err := r.Stats(context.Background(), "user-1", 30)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.ExpenseCount != 3 {
		t.Errorf("ExpenseCount = %d, want 3", stats.ExpenseCount)
	}
	if want := decimal.NewFromFloat(19.25); !stats.Total.Equal(want) {
		t.Errorf("Total = %s, want %s", stats.Total, want)
	}
	if want := decimal.NewFromFloat(7); !stats.ByCategory[model.CategoryFood].Equal(want) {
		t.Errorf("food total = %s, want %s", stats.ByCategory[model.CategoryFood], want)
	}
	if want := decimal.NewFromFloat(12.25); !stats.ByCategory[model.CategoryTransport].Equal(want) {
		t.Errorf("transport total = %s, want %s", stats.ByCategory[model.CategoryTransport], want)
	}

	// 19.25 / 30 rounded to cents.
	if want := decimal.NewFromFloat(0.64); !stats.DailyAverage.Equal(want) {
		t.Errorf("DailyAverage = %s, want %s", stats.DailyAverage, want)
	}

	// Only "cafe diario" repeats inside the window.
	if stats.RecurringDescriptions != 1 {
		t.Errorf("RecurringDescriptions = %d, want 1", stats.RecurringDescriptions)
	}
	if stats.WindowDays != 30 {
		t.Errorf("WindowDays = %d, want 30", stats.WindowDays)
	}
}

func TestStatsWeekdayAndHourBuckets(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	monday := time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC)
	saveExpense(t, store, "e1", "desayuno", 5, model.CategoryFood, monday)
	saveExpense(t, store, "e2", "almuerzo", 10, model.CategoryFood, monday.Add(4*time.Hour))

	r := NewReporter(store)
	r.now = func() time.Time { return now }

	stats, err := r.Stats(context.Background(), "user-1", 30)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if want := decimal.NewFromFloat(15); !stats.ByWeekday[0].Equal(want) {
		t.Errorf("monday total = %s, want %s", stats.ByWeekday[0], want)
	}
	if want := decimal.NewFromFloat(5); !stats.ByHour[9].Equal(want) {
		t.Errorf("9h total = %s, want %s", stats.ByHour[9], want)
	}
	if want := decimal.NewFromFloat(10); !stats.ByHour[13].Equal(want) {
		t.Errorf("13h total = %s, want %s", stats.ByHour[13], want)
	}
}

func TestStatsEmptyWindow(t *testing.T) {
	store := newTestStore(t)

	stats, err := NewReporter(store).Stats(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ExpenseCount != 0 {
		t.Errorf("ExpenseCount = %d, want 0", stats.ExpenseCount)
	}
	if !stats.Total.IsZero() || !stats.DailyAverage.IsZero() {
		t.Errorf("empty window should be zeroed: total=%s avg=%s", stats.Total, stats.DailyAverage)
	}
	if stats.WindowDays != DefaultWindowDays {
		t.Errorf("WindowDays = %d, want the default %d", stats.WindowDays, DefaultWindowDays)
	}
}

func TestStatsDecimalExactness(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	// Ten 0.10 expenses must sum to exactly 1.00.
	for i := 0; i < 10; i++ {
		saveExpense(t, store, fmt.Sprintf("e%d", i), fmt.Sprintf("snack %d", i), 0.10,
			model.CategoryFood, now.AddDate(0, 0, -(i+1)))
	}

	r := NewReporter(store)
	r.now = func() time.Time { return now }

	stats, err := r.Stats(context.Background(), "user-1", 30)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if want := decimal.NewFromInt(1); !stats.Total.Equal(want) {
		t.Errorf("Total = %s, want exactly 1", stats.Total)
	}
}
