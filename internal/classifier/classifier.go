// Package classifier implements the supervised expense category classifier:
// a TF-IDF text representation concatenated with scaled numeric features,
// fed to a random forest. A fitted classifier is an atomic bundle of
// vectorizer, scaler and forest that trained together; partial bundles are
// never produced.
package classifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gastolab/centavo/internal/common"
	"github.com/gastolab/centavo/internal/feature"
	"github.com/gastolab/centavo/internal/ml"
	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/text"
)

// MinTrainingExpenses is the smallest labeled set the classifier accepts.
const MinTrainingExpenses = 10

const bundleVersion = 1

// Bundle is the persisted artifact of one training run.
type Bundle struct {
	TrainedAt  time.Time      `json:"trained_at"`
	Vectorizer *ml.Vectorizer `json:"vectorizer"`
	Scaler     *ml.Scaler     `json:"scaler"`
	Forest     *ml.Forest     `json:"forest"`
	Version    int            `json:"version"`
}

// Prediction is the classifier's answer for one expense.
type Prediction struct {
	Category   model.Category
	Confidence float64
	Degraded   bool // prediction fault handled by falling back to the default
}

// defaultPrediction is returned when the model is untrained or a prediction
// fault degrades the call.
func defaultPrediction(degraded bool) Prediction {
	return Prediction{Category: model.CategoryMisc, Confidence: 0.5, Degraded: degraded}
}

// Classifier predicts an expense category with a confidence score.
// The zero value is an untrained classifier.
type Classifier struct {
	bundle *Bundle
}

// New returns an untrained classifier.
func New() *Classifier {
	return &Classifier{}
}

// FromBundle restores a classifier from a serialized bundle.
func FromBundle(payload []byte) (*Classifier, error) {
	var b Bundle
	if err := json.Unmarshal(payload, &b); err != nil {
		return nil, fmt.Errorf("failed to decode classifier bundle: %w", err)
	}
	if b.Vectorizer == nil || b.Scaler == nil || b.Forest == nil {
		return nil, fmt.Errorf("classifier bundle is incomplete")
	}
	return &Classifier{bundle: &b}, nil
}

// Trained reports whether the classifier holds a fitted bundle.
func (c *Classifier) Trained() bool {
	return c.bundle != nil
}

// MarshalBundle serializes the fitted bundle for persistence.
func (c *Classifier) MarshalBundle() ([]byte, error) {
	if c.bundle == nil {
		return nil, common.ErrModelNotTrained
	}
	payload, err := json.Marshal(c.bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to encode classifier bundle: %w", err)
	}
	return payload, nil
}

// Train fits a new bundle on the labeled expenses. It requires at least
// MinTrainingExpenses; on insufficient data it returns
// common.ErrInsufficientData and leaves any previously trained state
// untouched. The fitted bundle replaces the old one only after training and
// evaluation both complete.
func (c *Classifier) Train(expenses []model.Expense) (*model.TrainingResult, error) {
	labeled := make([]model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Category.Valid() {
			labeled = append(labeled, e)
		}
	}

	if len(labeled) < MinTrainingExpenses {
		return nil, fmt.Errorf("%w: need at least %d labeled expenses, have %d",
			common.ErrInsufficientData, MinTrainingExpenses, len(labeled))
	}

	classes := model.AllCategories()
	classIndex := make(map[model.Category]int, len(classes))
	classNames := make([]string, len(classes))
	for i, cat := range classes {
		classIndex[cat] = i
		classNames[i] = string(cat)
	}

	docs := make([]string, len(labeled))
	y := make([]int, len(labeled))
	numeric := make([][]float64, len(labeled))
	for i := range labeled {
		docs[i] = normalizedText(&labeled[i])
		y[i] = classIndex[labeled[i].Category]
		numeric[i] = feature.NumericVector(&labeled[i])
	}

	vectorizer := ml.NewVectorizer(1000)
	vectorizer.Fit(docs)
	textRows := vectorizer.TransformAll(docs)

	scaler := &ml.Scaler{}
	scaler.Fit(numeric)
	numericRows := scaler.TransformAll(numeric)

	rows := make([][]float64, len(labeled))
	for i := range rows {
		rows[i] = append(append([]float64{}, textRows[i]...), numericRows[i]...)
	}

	trainIdx, testIdx := ml.StratifiedSplit(y, 0.2, 42)

	forest := ml.NewForest(classNames)
	forest.Fit(selectRows(rows, trainIdx), selectLabels(y, trainIdx))

	yTest := selectLabels(y, testIdx)
	yPred := make([]int, len(testIdx))
	for i, idx := range testIdx {
		yPred[i] = forest.Predict(rows[idx])
	}

	report := make(map[model.Category]model.ClassMetrics, len(classes))
	for i, r := range ml.Report(yTest, yPred, len(classes)) {
		report[classes[i]] = model.ClassMetrics{
			Precision: r.Precision,
			Recall:    r.Recall,
			F1:        r.F1,
			Support:   r.Support,
		}
	}

	c.bundle = &Bundle{
		Version:    bundleVersion,
		TrainedAt:  time.Now().UTC(),
		Vectorizer: vectorizer,
		Scaler:     scaler,
		Forest:     forest,
	}

	return &model.TrainingResult{
		Accuracy:    ml.Accuracy(yTest, yPred),
		SampleCount: len(labeled),
		Report:      report,
	}, nil
}

// Predict classifies a description and amount. Pass -1 for weekday or hour
// when they are unknown; they default to Monday and midday. An untrained
// classifier, and any internal prediction fault, yields the default category
// with neutral confidence rather than an error.
func (c *Classifier) Predict(description string, amount float64, weekday, hour int) Prediction {
	if c.bundle == nil {
		return defaultPrediction(false)
	}

	if weekday < 0 || weekday > 6 {
		weekday = 0
	}
	if hour < 0 || hour > 23 {
		hour = 12
	}

	textVec := c.bundle.Vectorizer.Transform(text.Normalize(description))

	weekend := 0.0
	if weekday >= 5 {
		weekend = 1.0
	}
	numeric := c.bundle.Scaler.Transform([]float64{amount, float64(weekday), float64(hour), weekend, 1})

	row := append(append([]float64{}, textVec...), numeric...)

	probs := c.bundle.Forest.PredictProba(row)
	if len(probs) != len(c.bundle.Forest.Classes) || len(probs) == 0 {
		return defaultPrediction(true)
	}

	best, bestProb := 0, probs[0]
	for i, p := range probs[1:] {
		if p > bestProb {
			best, bestProb = i+1, p
		}
	}

	category, ok := model.ParseCategory(c.bundle.Forest.Classes[best])
	if !ok || bestProb <= 0 {
		return defaultPrediction(true)
	}

	return Prediction{Category: category, Confidence: bestProb}
}

func normalizedText(e *model.Expense) string {
	if e.NormalizedText != "" {
		return e.NormalizedText
	}
	return text.Normalize(e.Description)
}

func selectRows(rows [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = rows[j]
	}
	return out
}

func selectLabels(y, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
