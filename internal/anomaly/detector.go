// Package anomaly flags expenses that fall outside a user's usual spending.
// Per-category statistical thresholds are the primary signal; a clustering
// over scaled numeric features is the fallback net for outliers the
// thresholds miss.
package anomaly

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gastolab/centavo/internal/common"
	"github.com/gastolab/centavo/internal/feature"
	"github.com/gastolab/centavo/internal/ml"
	"github.com/gastolab/centavo/internal/model"
)

// MinTrainingExpenses is the smallest categorized set the detector accepts.
const MinTrainingExpenses = 20

// ClusterCount is the fixed number of clusters fitted over numeric features.
const ClusterCount = 5

// Threshold holds the statistical bounds for one (user, category) pair.
type Threshold struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Upper float64 `json:"upper"` // mean + 2σ
	Lower float64 `json:"lower"` // max(0, mean − 2σ)
}

// Profile is the persisted artifact of one anomaly training run. It is
// recomputed wholesale on retrain; there is no incremental update.
type Profile struct {
	TrainedAt  time.Time                    `json:"trained_at"`
	Thresholds map[model.Category]Threshold `json:"thresholds"`
	Scaler     *ml.Scaler                   `json:"scaler"`
	Clusters   *ml.KMeans                   `json:"clusters"`
}

// Detector evaluates expenses against a fitted Profile.
// The zero value is an untrained detector.
type Detector struct {
	profile *Profile
}

// New returns an untrained detector.
func New() *Detector {
	return &Detector{}
}

// FromProfile restores a detector from a serialized profile.
func FromProfile(payload []byte) (*Detector, error) {
	var p Profile
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode anomaly profile: %w", err)
	}
	if p.Thresholds == nil || p.Scaler == nil || p.Clusters == nil {
		return nil, fmt.Errorf("anomaly profile is incomplete")
	}
	return &Detector{profile: &p}, nil
}

// Trained reports whether the detector holds a fitted profile.
func (d *Detector) Trained() bool {
	return d.profile != nil
}

// MarshalProfile serializes the fitted profile for persistence.
func (d *Detector) MarshalProfile() ([]byte, error) {
	if d.profile == nil {
		return nil, common.ErrModelNotTrained
	}
	payload, err := json.Marshal(d.profile)
	if err != nil {
		return nil, fmt.Errorf("failed to encode anomaly profile: %w", err)
	}
	return payload, nil
}

// Train fits thresholds and clustering on the user's categorized expenses.
// It requires at least MinTrainingExpenses; on insufficient data it returns
// common.ErrInsufficientData without touching any previously fitted profile.
func (d *Detector) Train(expenses []model.Expense) (*model.AnomalyTrainingResult, error) {
	categorized := make([]model.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Category.Valid() {
			categorized = append(categorized, e)
		}
	}

	if len(categorized) < MinTrainingExpenses {
		return nil, fmt.Errorf("%w: need at least %d categorized expenses, have %d",
			common.ErrInsufficientData, MinTrainingExpenses, len(categorized))
	}

	thresholds := make(map[model.Category]Threshold)
	byCategory := make(map[model.Category][]float64)
	for _, e := range categorized {
		byCategory[e.Category] = append(byCategory[e.Category], e.Amount)
	}
	for cat, amounts := range byCategory {
		mean, std := meanStd(amounts)
		lower := mean - 2*std
		if lower < 0 {
			lower = 0
		}
		thresholds[cat] = Threshold{
			Mean:  mean,
			Std:   std,
			Upper: mean + 2*std,
			Lower: lower,
		}
	}

	rows := make([][]float64, len(categorized))
	for i := range categorized {
		rows[i] = feature.ClusterVector(&categorized[i])
	}
	scaler := &ml.Scaler{}
	scaler.Fit(rows)
	scaled := scaler.TransformAll(rows)

	clusters := ml.NewKMeans(ClusterCount)
	clusters.Fit(scaled)

	d.profile = &Profile{
		TrainedAt:  time.Now().UTC(),
		Thresholds: thresholds,
		Scaler:     scaler,
		Clusters:   clusters,
	}

	return &model.AnomalyTrainingResult{
		ThresholdsComputed: len(thresholds),
		Clusters:           ClusterCount,
		SampleCount:        len(categorized),
	}, nil
}

// The clustering flags a point when its nearest-centroid distance exceeds
// distanceFactor × spread; severity saturates at severityFactor × spread.
// The 2:3 ratio matches the threshold math used on the amount bounds.
const (
	distanceFactor = 2.0
	severityFactor = 3.0
	minSpread      = 1.0
)

// Detect evaluates one expense. An untrained detector reports "not
// anomalous"; the category threshold check takes precedence over the
// clustering signal. Detection faults degrade to "normal" with the fault
// noted, never an error.
func (d *Detector) Detect(e *model.Expense) model.AnomalyReport {
	if d.profile == nil {
		return model.AnomalyReport{Reason: "modelo no entrenado"}
	}

	category := e.Category
	if !category.Valid() {
		category = model.CategoryMisc
	}

	if t, ok := d.profile.Thresholds[category]; ok && t.Mean > 0 {
		if e.Amount > t.Upper {
			severity := (e.Amount - t.Upper) / t.Mean
			return model.AnomalyReport{
				IsAnomalous: true,
				Severity:    clamp01(severity),
				Reason:      fmt.Sprintf("monto muy alto para %s", strings.ToLower(string(category))),
			}
		}
		if e.Amount < t.Lower {
			severity := (t.Lower - e.Amount) / t.Mean
			return model.AnomalyReport{
				IsAnomalous: true,
				Severity:    clamp01(severity),
				Reason:      fmt.Sprintf("monto muy bajo para %s", strings.ToLower(string(category))),
			}
		}
	}

	scaled := d.profile.Scaler.Transform(feature.ClusterVector(e))
	if len(d.profile.Clusters.Centroids) == 0 {
		return model.AnomalyReport{Reason: "perfil sin clusters", Degraded: true}
	}

	spread := d.profile.Clusters.Spread
	if spread < minSpread {
		spread = minSpread
	}

	distance := d.profile.Clusters.NearestDistance(scaled)
	if distance > distanceFactor*spread {
		return model.AnomalyReport{
			IsAnomalous: true,
			Severity:    clamp01(distance / (severityFactor * spread)),
			Reason:      "patron de gasto inusual",
		}
	}

	return model.AnomalyReport{Reason: "gasto normal"}
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := 0.0
	if len(values) > 1 {
		std = math.Sqrt(sq / float64(len(values)-1))
	}
	return mean, std
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
