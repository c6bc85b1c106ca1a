package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/gastolab/centavo/internal/anomaly"
	"github.com/gastolab/centavo/internal/classifier"
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

// trainingExpenses builds enough labeled expenses to train both model kinds.
func trainingExpenses() []model.Expense {
	descriptions := map[model.Category][]string{
		model.CategoryTransport: {"taxi aeropuerto", "taxi centro", "autobus urbano", "gasolina coche", "metro diario"},
		model.CategoryFood:      {"alimentacion restaurante", "alimentacion cafeteria", "supermercado semanal", "pizza cena", "desayuno panaderia"},
		model.CategoryMisc:      {"cine entradas", "farmacia compra", "regalo cumpleanos", "ropa tienda", "libreria novela"},
	}

	var expenses []model.Expense
	i := 0
	for category, texts := range descriptions {
		for round := 0; round < 2; round++ {
			for _, text := range texts {
				date := time.Date(2024, 4, 1+i%28, 10+i%8, 0, 0, 0, time.UTC)
				temporal := feature.ExtractTemporal(date)
				expenses = append(expenses, model.Expense{
					ID:             fmt.Sprintf("e%d", i),
					UserID:         "user-1",
					Description:    text,
					NormalizedText: text,
					Amount:         10 + float64(i%5),
					Category:       category,
					Date:           date,
					Weekday:        temporal.Weekday,
					Hour:           temporal.Hour,
					DayPart:        temporal.DayPart,
				})
				i++
			}
		}
	}
	return expenses
}

func TestScopeForUser(t *testing.T) {
	if got := ScopeForUser(""); got != GlobalScope {
		t.Errorf("ScopeForUser(\"\") = %q, want %q", got, GlobalScope)
	}
	if got := ScopeForUser("user-1"); got != "user-1" {
		t.Errorf("ScopeForUser(user-1) = %q", got)
	}
}

func TestClassifierLazyLoadUntrained(t *testing.T) {
	reg := New(newTestStore(t))
	ctx := context.Background()

	c, err := reg.Classifier(ctx, GlobalScope)
	if err != nil {
		t.Fatalf("Classifier: %v", err)
	}
	if c.Trained() {
		t.Error("scope with no persisted bundle should yield an untrained classifier")
	}

	// Second call returns the cached instance.
	again, err := reg.Classifier(ctx, GlobalScope)
	if err != nil {
		t.Fatalf("second Classifier: %v", err)
	}
	if again != c {
		t.Error("expected the cached classifier instance")
	}
}

func TestDetectorLazyLoadUntrained(t *testing.T) {
	reg := New(newTestStore(t))

	d, err := reg.Detector(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Detector: %v", err)
	}
	if d.Trained() {
		t.Error("scope with no persisted profile should yield an untrained detector")
	}
}

func TestSwapClassifierPersists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trained := classifier.New()
	if _, err := trained.Train(trainingExpenses()); err != nil {
		t.Fatalf("train: %v", err)
	}

	reg := New(store)
	if err := reg.SwapClassifier(ctx, GlobalScope, trained); err != nil {
		t.Fatalf("swap: %v", err)
	}

	got, err := reg.Classifier(ctx, GlobalScope)
	if err != nil {
		t.Fatalf("Classifier after swap: %v", err)
	}
	if got != trained {
		t.Error("swap should install the new instance")
	}

	// A fresh registry over the same storage restores the trained model.
	restored, err := New(store).Classifier(ctx, GlobalScope)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.Trained() {
		t.Fatal("restored classifier should be trained")
	}
	pred := restored.Predict("taxi aeropuerto", 12, 2, 10)
	if pred.Category != model.CategoryTransport {
		t.Errorf("restored prediction = %v, want %v", pred.Category, model.CategoryTransport)
	}
}

func TestSwapClassifierUntrained(t *testing.T) {
	reg := New(newTestStore(t))
	if err := reg.SwapClassifier(context.Background(), GlobalScope, classifier.New()); err == nil {
		t.Fatal("swapping an untrained classifier should fail")
	}
}

func TestSwapDetectorPersists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trained := anomaly.New()
	if _, err := trained.Train(trainingExpenses()); err != nil {
		t.Fatalf("train: %v", err)
	}

	reg := New(store)
	if err := reg.SwapDetector(ctx, "user-1", trained); err != nil {
		t.Fatalf("swap: %v", err)
	}

	restored, err := New(store).Detector(ctx, "user-1")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.Trained() {
		t.Error("restored detector should be trained")
	}
}

func TestScopesAreIndependent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trained := classifier.New()
	if _, err := trained.Train(trainingExpenses()); err != nil {
		t.Fatalf("train: %v", err)
	}

	reg := New(store)
	if err := reg.SwapClassifier(ctx, "user-1", trained); err != nil {
		t.Fatalf("swap: %v", err)
	}

	global, err := reg.Classifier(ctx, GlobalScope)
	if err != nil {
		t.Fatalf("global classifier: %v", err)
	}
	if global.Trained() {
		t.Error("training a user scope must not affect the global scope")
	}
}
