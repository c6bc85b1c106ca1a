package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/gastolab/centavo/internal/common"
	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/service"
	"github.com/gastolab/centavo/internal/storage"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	eng := New(store, Options{
		Now: func() time.Time { return time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestCreateExpenseExplicitCategory(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	// Friday evening.
	date := time.Date(2024, 5, 10, 21, 30, 0, 0, time.UTC)
	expense, err := eng.CreateExpense(ctx, CreateExpenseInput{
		UserID:      "user-1",
		Description: "  Cena restaurante  ",
		Amount:      35.50,
		Category:    "comida",
		Date:        date,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	if expense.ID == "" {
		t.Error("expense should get an id")
	}
	if expense.Description != "Cena restaurante" {
		t.Errorf("description = %q, want trimmed", expense.Description)
	}
	if expense.NormalizedText != "cena restaurante" {
		t.Errorf("normalized = %q", expense.NormalizedText)
	}
	if expense.Category != model.CategoryFood || expense.Confidence != 1.0 {
		t.Errorf("explicit category should stick at full confidence: %v %v",
			expense.Category, expense.Confidence)
	}
	if expense.Weekday != 4 || expense.Hour != 21 {
		t.Errorf("temporal features = weekday %d hour %d", expense.Weekday, expense.Hour)
	}
	if expense.IsWeekend {
		t.Error("friday is a weekday")
	}
	if expense.DayPart != model.DayPartEvening {
		t.Errorf("day part = %v, want %v", expense.DayPart, model.DayPartEvening)
	}
	if expense.DescriptionFreq != 1 || expense.IsRecurring {
		t.Errorf("first occurrence: freq %d recurring %v", expense.DescriptionFreq, expense.IsRecurring)
	}

	eng.Wait()

	stored, err := eng.store.GetExpenseByID(ctx, expense.ID)
	if err != nil {
		t.Fatalf("expense not persisted: %v", err)
	}
	if stored.Category != model.CategoryFood {
		t.Errorf("stored category = %v", stored.Category)
	}
}

func TestCreateExpenseKeywordFallback(t *testing.T) {
	eng := newTestEngine(t)

	// No trained model exists, so the keyword detector assigns the category.
	expense, err := eng.CreateExpense(context.Background(), CreateExpenseInput{
		UserID:      "user-1",
		Description: "taxi al aeropuerto",
		Amount:      25,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if expense.Category != model.CategoryTransport {
		t.Errorf("category = %v, want %v from keywords", expense.Category, model.CategoryTransport)
	}
	if expense.Confidence >= 1.0 {
		t.Errorf("keyword confidence = %v, want < 1", expense.Confidence)
	}
}

func TestCreateExpenseDefaultCategory(t *testing.T) {
	eng := newTestEngine(t)

	expense, err := eng.CreateExpense(context.Background(), CreateExpenseInput{
		UserID:      "user-1",
		Description: "cosa indescifrable",
		Amount:      10,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if expense.Category != model.CategoryMisc || expense.Confidence != 0.5 {
		t.Errorf("unmatched description should default: %v %v", expense.Category, expense.Confidence)
	}
}

func TestCreateExpenseZeroDateUsesClock(t *testing.T) {
	eng := newTestEngine(t)

	expense, err := eng.CreateExpense(context.Background(), CreateExpenseInput{
		UserID:      "user-1",
		Description: "cafe",
		Amount:      3,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	want := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	if !expense.Date.Equal(want) {
		t.Errorf("date = %v, want the injected clock %v", expense.Date, want)
	}
}

func TestCreateExpenseRecurrence(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	var last *model.Expense
	for i := 0; i < 4; i++ {
		e, err := eng.CreateExpense(ctx, CreateExpenseInput{
			UserID:      "user-1",
			Description: "Cafe diario",
			Amount:      3,
			Date:        time.Date(2024, 5, 10+i, 9, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("CreateExpense %d: %v", i, err)
		}
		last = e
	}

	if last.DescriptionFreq != 3 {
		t.Errorf("freq = %d, want 3 earlier occurrences", last.DescriptionFreq)
	}
	if !last.IsRecurring {
		t.Error("fourth occurrence should be marked recurring")
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateExpenseInput
	}{
		{"missing user", CreateExpenseInput{Description: "cafe", Amount: 3}},
		{"blank description", CreateExpenseInput{UserID: "u", Description: "   ", Amount: 3}},
		{"zero amount", CreateExpenseInput{UserID: "u", Description: "cafe", Amount: 0}},
		{"negative amount", CreateExpenseInput{UserID: "u", Description: "cafe", Amount: -5}},
		{"unknown category", CreateExpenseInput{UserID: "u", Description: "cafe", Amount: 3, Category: "hogar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.CreateExpense(ctx, tt.input)
			var userErr *common.UserError
			if !errors.As(err, &userErr) {
				t.Errorf("error = %v, want a user error", err)
			}
		})
	}
}

func TestUpdateExpense(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	created, err := eng.CreateExpense(ctx, CreateExpenseInput{
		UserID:      "user-1",
		Description: "taxi centro",
		Amount:      12,
		Date:        time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	desc := "Cena restaurante"
	amount := 40.0
	category := "COMIDA"
	date := time.Date(2024, 5, 11, 22, 0, 0, 0, time.UTC)
	updated, err := eng.UpdateExpense(ctx, "user-1", created.ID, UpdateExpenseInput{
		Description: &desc,
		Amount:      &amount,
		Category:    &category,
		Date:        &date,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Description != "Cena restaurante" || updated.NormalizedText != "cena restaurante" {
		t.Errorf("description not recomputed: %q / %q", updated.Description, updated.NormalizedText)
	}
	if updated.Amount != 40 {
		t.Errorf("amount = %v", updated.Amount)
	}
	if updated.Category != model.CategoryFood || updated.Confidence != 1.0 {
		t.Errorf("category = %v at %v", updated.Category, updated.Confidence)
	}
	if updated.Weekday != 5 || updated.Hour != 22 || updated.DayPart != model.DayPartDawn {
		t.Errorf("temporal features not recomputed: weekday %d hour %d part %v",
			updated.Weekday, updated.Hour, updated.DayPart)
	}
}

func TestUpdateExpenseWrongUser(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	created, err := eng.CreateExpense(ctx, CreateExpenseInput{
		UserID:      "user-1",
		Description: "cafe",
		Amount:      3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	amount := 99.0
	_, err = eng.UpdateExpense(ctx, "user-2", created.ID, UpdateExpenseInput{Amount: &amount})
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound for another user's expense", err)
	}
}

// seedLabeled records enough labeled expenses to train both model kinds.
func seedLabeled(t *testing.T, eng *Engine, userID string) {
	t.Helper()
	ctx := context.Background()

	samples := []struct {
		description string
		category    string
		amount      float64
	}{
		{"taxi aeropuerto", "TRANSPORTE", 25},
		{"taxi centro", "TRANSPORTE", 12},
		{"uber oficina", "TRANSPORTE", 9},
		{"bus urbano", "TRANSPORTE", 2},
		{"gasolina coche", "TRANSPORTE", 45},
		{"metro diario", "TRANSPORTE", 2},
		{"almuerzo restaurante", "COMIDA", 14},
		{"desayuno cafeteria", "COMIDA", 5},
		{"cena pizzeria", "COMIDA", 22},
		{"supermercado semanal", "COMIDA", 60},
		{"pan panaderia", "COMIDA", 3},
		{"menu del dia", "COMIDA", 11},
		{"cine entradas", "VARIOS", 16},
		{"farmacia compra", "VARIOS", 8},
		{"regalo cumpleanos", "VARIOS", 30},
		{"ropa tienda", "VARIOS", 55},
		{"libreria novela", "VARIOS", 18},
		{"peluqueria corte", "VARIOS", 15},
		{"taxi nocturno", "TRANSPORTE", 18},
		{"cafe con leche", "COMIDA", 2.5},
	}
	for i, s := range samples {
		_, err := eng.CreateExpense(ctx, CreateExpenseInput{
			UserID:      userID,
			Description: s.description,
			Category:    s.category,
			Amount:      s.amount,
			Date:        time.Date(2024, 4, 1+i, 10+i%8, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("seed %s: %v", s.description, err)
		}
	}
	eng.Wait()
}

func TestTrainAndClassify(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedLabeled(t, eng, "user-1")

	result, err := eng.TrainClassifier(ctx, "")
	if err != nil {
		t.Fatalf("TrainClassifier: %v", err)
	}
	if result.SampleCount != 20 {
		t.Errorf("sample count = %d, want 20", result.SampleCount)
	}

	got := eng.Classify(ctx, "user-1", "taxi al aeropuerto", 20, time.Time{})
	if got.Source != "model" {
		t.Fatalf("source = %q, want model", got.Source)
	}
	if got.Category != model.CategoryTransport {
		t.Errorf("category = %v, want %v", got.Category, model.CategoryTransport)
	}
	if got.Degraded {
		t.Error("trained prediction should not be degraded")
	}
}

func TestTrainClassifierInsufficientData(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.TrainClassifier(context.Background(), "user-1")
	if !errors.Is(err, common.ErrInsufficientData) {
		t.Errorf("error = %v, want ErrInsufficientData", err)
	}
}

func TestClassifyFallsBackToKeywords(t *testing.T) {
	eng := newTestEngine(t)

	got := eng.Classify(context.Background(), "user-1", "pizza margarita", 12, time.Time{})
	if got.Source != "keywords" {
		t.Errorf("source = %q, want keywords", got.Source)
	}
	if got.Category != model.CategoryFood {
		t.Errorf("category = %v", got.Category)
	}
}

func TestClassifyDefault(t *testing.T) {
	eng := newTestEngine(t)

	got := eng.Classify(context.Background(), "user-1", "cosa rara", 12, time.Time{})
	if got.Source != "default" || got.Category != model.CategoryMisc || !got.Degraded {
		t.Errorf("unmatched description should default degraded: %+v", got)
	}
}

func TestUserScopeFallsBackToGlobalModel(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedLabeled(t, eng, "user-1")

	// Only the global model is trained; user-2 has no model of their own.
	if _, err := eng.TrainClassifier(ctx, ""); err != nil {
		t.Fatalf("train global: %v", err)
	}

	got := eng.Classify(ctx, "user-2", "taxi aeropuerto", 20, time.Time{})
	if got.Source != "model" {
		t.Errorf("source = %q, want the global model to serve user-2", got.Source)
	}
}

func TestTrainAnomalyAndCheck(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	seedLabeled(t, eng, "user-1")

	result, err := eng.TrainAnomaly(ctx, "")
	if err != nil {
		t.Fatalf("TrainAnomaly: %v", err)
	}
	if result.SampleCount != 20 {
		t.Errorf("sample count = %d, want 20", result.SampleCount)
	}

	findings, err := eng.CheckAnomalies(ctx, "user-1", 5)
	if err != nil {
		t.Fatalf("CheckAnomalies: %v", err)
	}
	if len(findings) != 5 {
		t.Errorf("got %d findings, want 5", len(findings))
	}
	for _, f := range findings {
		if f.Report.Reason == "" {
			t.Errorf("finding for %s has no reason", f.Expense.ID)
		}
	}
}

func TestCheckExpense(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	created, err := eng.CreateExpense(ctx, CreateExpenseInput{
		UserID:      "user-1",
		Description: "cafe",
		Amount:      3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	eng.Wait()

	finding, err := eng.CheckExpense(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("CheckExpense: %v", err)
	}
	// No trained detector exists, so the untrained fallback answers.
	if finding.Report.IsAnomalous {
		t.Error("untrained detector must not flag anomalies")
	}
	if finding.Report.Reason != "modelo no entrenado" {
		t.Errorf("reason = %q", finding.Report.Reason)
	}

	if _, err := eng.CheckExpense(ctx, "user-2", created.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound for another user", err)
	}
}

func TestAnalyzePatternsPersists(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// A recurring ride plus enough filler to clear the analysis minimum.
	for i := 0; i < 3; i++ {
		_, err := eng.CreateExpense(ctx, CreateExpenseInput{
			UserID:      "user-1",
			Description: "Taxi aeropuerto",
			Amount:      20 + float64(i),
			Date:        now.AddDate(0, 0, -7*(i+1)),
		})
		if err != nil {
			t.Fatalf("create ride %d: %v", i, err)
		}
	}
	fillers := []string{"libro nuevo", "regalo sorpresa", "entrada museo", "flores plaza",
		"revista kiosco", "pilas recambio", "cuaderno notas"}
	for i, desc := range fillers {
		_, err := eng.CreateExpense(ctx, CreateExpenseInput{
			UserID:      "user-1",
			Description: desc,
			Amount:      5,
			Date:        now.AddDate(0, 0, -(i + 2)),
		})
		if err != nil {
			t.Fatalf("create filler %d: %v", i, err)
		}
	}
	eng.Wait()

	patterns, err := eng.AnalyzePatterns(ctx, "user-1")
	if err != nil {
		t.Fatalf("AnalyzePatterns: %v", err)
	}
	var recurring *model.Pattern
	for i := range patterns {
		if patterns[i].Kind == model.PatternRecurring && patterns[i].Key == "taxi aeropuerto" {
			recurring = &patterns[i]
		}
	}
	if recurring == nil {
		t.Fatalf("no recurring taxi pattern in %d patterns", len(patterns))
	}

	stored, err := eng.StoredPatterns(ctx, "user-1")
	if err != nil {
		t.Fatalf("StoredPatterns: %v", err)
	}
	if len(stored) != len(patterns) {
		t.Errorf("stored %d patterns, analyzed %d", len(stored), len(patterns))
	}
}

func TestDeleteExpenses(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	created, err := eng.CreateExpense(ctx, CreateExpenseInput{
		UserID:      "user-1",
		Description: "cafe",
		Amount:      3,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	eng.Wait()

	summary, err := eng.DeleteExpenses(ctx, "user-1", []string{created.ID, "ghost"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(summary.Deleted) != 1 || len(summary.NotFoundIDs) != 1 {
		t.Errorf("summary = %+v", summary)
	}

	remaining, err := eng.ListExpenses(ctx, "user-1", service.ExpenseFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("remaining = %d, want 0", len(remaining))
	}
}

func TestSuggestWithoutSuggester(t *testing.T) {
	eng := newTestEngine(t)

	got := eng.Suggest(context.Background(), "cena", model.CategoryFood)
	if got.Status != "degraded" {
		t.Errorf("status = %v, want degraded without a configured endpoint", got.Status)
	}
	if got.Category != model.CategoryFood || got.Confidence != 1.0 {
		t.Errorf("degraded suggestion should trust the user: %+v", got)
	}
}

func TestStats(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := eng.CreateExpense(ctx, CreateExpenseInput{
			UserID:      "user-1",
			Description: fmt.Sprintf("gasto %d", i),
			Amount:      10,
			Date:        time.Now().UTC().AddDate(0, 0, -(i + 1)),
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	eng.Wait()

	stats, err := eng.Stats(ctx, "user-1", 30)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ExpenseCount != 4 {
		t.Errorf("count = %d, want 4", stats.ExpenseCount)
	}
}
