package feature

import "github.com/gastolab/centavo/internal/model"

// NumericCount is the width of the numeric feature vector.
const NumericCount = 5

// NumericVector builds the numeric feature slice for one expense:
// amount, weekday, hour, weekend flag, description frequency.
// The ordering is load-bearing: trained scalers assume it.
func NumericVector(e *model.Expense) []float64 {
	weekend := 0.0
	if e.IsWeekend {
		weekend = 1.0
	}
	freq := e.DescriptionFreq
	if freq < 1 {
		freq = 1
	}
	return []float64{
		e.Amount,
		float64(e.Weekday),
		float64(e.Hour),
		weekend,
		float64(freq),
	}
}

// ClusterVector builds the slice the anomaly clustering uses:
// amount, weekday, hour, description frequency.
func ClusterVector(e *model.Expense) []float64 {
	freq := e.DescriptionFreq
	if freq < 1 {
		freq = 1
	}
	return []float64{
		e.Amount,
		float64(e.Weekday),
		float64(e.Hour),
		float64(freq),
	}
}
