package model

// ClassMetrics holds per-category precision/recall/F1 from a held-out split.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// TrainingResult reports the outcome of fitting the category classifier.
type TrainingResult struct {
	Report      map[Category]ClassMetrics
	Accuracy    float64
	SampleCount int
}

// AnomalyTrainingResult reports the outcome of fitting the anomaly detector.
type AnomalyTrainingResult struct {
	ThresholdsComputed int
	Clusters           int
	SampleCount        int
}

// AnomalyReport is the verdict of the anomaly detector for one expense.
type AnomalyReport struct {
	Reason      string
	Severity    float64 // [0, 1]
	IsAnomalous bool
	Degraded    bool // detection fault handled by falling back to "normal"
}
