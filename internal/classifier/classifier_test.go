package classifier

import (
	"errors"
	"testing"
	"time"

	"github.com/gastolab/centavo/internal/common"
	"github.com/gastolab/centavo/internal/model"
)

// trainingExpenses builds a small labeled history with clear text signal per
// category.
func trainingExpenses() []model.Expense {
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	samples := []struct {
		description string
		category    model.Category
		amount      float64
	}{
		{"taxi al aeropuerto", model.CategoryTransport, 25},
		{"taxi al centro", model.CategoryTransport, 8},
		{"transporte_publico al trabajo", model.CategoryTransport, 1.5},
		{"combustible del auto", model.CategoryTransport, 40},
		{"taxi nocturno", model.CategoryTransport, 12},
		{"alimentacion en el trabajo", model.CategoryFood, 9},
		{"alimentacion con amigos", model.CategoryFood, 22},
		{"supermercado semanal", model.CategoryFood, 55},
		{"pizza delivery", model.CategoryFood, 14},
		{"alimentacion rapida", model.CategoryFood, 6},
		{"entretenimiento con amigos", model.CategoryMisc, 12},
		{"regalo cumpleanos", model.CategoryMisc, 30},
		{"farmacia", model.CategoryMisc, 11},
		{"ropa nueva", model.CategoryMisc, 45},
	}

	expenses := make([]model.Expense, len(samples))
	for i, s := range samples {
		date := base.AddDate(0, 0, i)
		expenses[i] = model.Expense{
			ID:          "e" + string(rune('a'+i)),
			UserID:      "user-1",
			Description: s.description,
			Category:    s.category,
			Amount:      s.amount,
			Date:        date,
			Weekday:     i % 7,
			Hour:        9 + i%10,
		}
	}
	return expenses
}

func TestClassifierTrainInsufficientData(t *testing.T) {
	c := New()
	_, err := c.Train(trainingExpenses()[:5])
	if !errors.Is(err, common.ErrInsufficientData) {
		t.Fatalf("error = %v, want ErrInsufficientData", err)
	}
	if c.Trained() {
		t.Error("failed training should leave the classifier untrained")
	}
}

func TestClassifierTrainIgnoresUnlabeled(t *testing.T) {
	expenses := trainingExpenses()[:8]
	for i := 0; i < 5; i++ {
		expenses = append(expenses, model.Expense{Description: "algo", Amount: 5})
	}

	c := New()
	if _, err := c.Train(expenses); !errors.Is(err, common.ErrInsufficientData) {
		t.Fatalf("unlabeled expenses should not count toward the minimum, got %v", err)
	}
}

func TestClassifierTrainAndPredict(t *testing.T) {
	c := New()
	result, err := c.Train(trainingExpenses())
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if !c.Trained() {
		t.Fatal("classifier should be trained")
	}
	if result.SampleCount != 14 {
		t.Errorf("sample count = %d, want 14", result.SampleCount)
	}
	if len(result.Report) != len(model.AllCategories()) {
		t.Errorf("report covers %d categories, want %d", len(result.Report), len(model.AllCategories()))
	}

	pred := c.Predict("taxi al aeropuerto", 20, 2, 10)
	if pred.Category != model.CategoryTransport {
		t.Errorf("category = %v, want %v", pred.Category, model.CategoryTransport)
	}
	if pred.Confidence <= 1.0/3.0 {
		t.Errorf("confidence = %v, want above the uniform baseline", pred.Confidence)
	}
	if pred.Degraded {
		t.Error("healthy prediction should not be degraded")
	}
}

func TestClassifierPredictUntrained(t *testing.T) {
	pred := New().Predict("taxi", 10, 1, 9)
	if pred.Category != model.CategoryMisc {
		t.Errorf("category = %v, want default %v", pred.Category, model.CategoryMisc)
	}
	if pred.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", pred.Confidence)
	}
}

func TestClassifierPredictDefaultsUnknownTime(t *testing.T) {
	c := New()
	if _, err := c.Train(trainingExpenses()); err != nil {
		t.Fatalf("train: %v", err)
	}

	withDefaults := c.Predict("taxi al aeropuerto", 20, -1, -1)
	explicit := c.Predict("taxi al aeropuerto", 20, 0, 12)
	if withDefaults.Category != explicit.Category || withDefaults.Confidence != explicit.Confidence {
		t.Error("weekday/hour of -1 should behave as Monday midday")
	}
}

func TestClassifierBundleRoundTrip(t *testing.T) {
	c := New()
	if _, err := c.Train(trainingExpenses()); err != nil {
		t.Fatalf("train: %v", err)
	}

	payload, err := c.MarshalBundle()
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}

	restored, err := FromBundle(payload)
	if err != nil {
		t.Fatalf("restore bundle: %v", err)
	}

	before := c.Predict("taxi al aeropuerto", 20, 2, 10)
	after := restored.Predict("taxi al aeropuerto", 20, 2, 10)
	if before.Category != after.Category || before.Confidence != after.Confidence {
		t.Errorf("restored classifier diverges: %+v vs %+v", before, after)
	}
}

func TestFromBundleRejectsIncomplete(t *testing.T) {
	if _, err := FromBundle([]byte(`{"version":1}`)); err == nil {
		t.Error("incomplete bundle should be rejected")
	}
	if _, err := FromBundle([]byte(`not json`)); err == nil {
		t.Error("malformed bundle should be rejected")
	}
}

func TestMarshalBundleUntrained(t *testing.T) {
	if _, err := New().MarshalBundle(); !errors.Is(err, common.ErrModelNotTrained) {
		t.Errorf("error = %v, want ErrModelNotTrained", err)
	}
}
