package pattern

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gastolab/centavo/internal/feature"
	"github.com/gastolab/centavo/internal/model"
)

// Confidence floors a pattern must clear before it turns into advice.
const (
	recurringConfidenceFloor = 0.7
	seasonalConfidenceFloor  = 0.6
)

// Recommender turns detected patterns into user-facing recommendations.
type Recommender struct {
	analyzer *Analyzer
	now      func() time.Time
}

// NewRecommender creates a recommender over the given analyzer.
func NewRecommender(analyzer *Analyzer) *Recommender {
	return &Recommender{analyzer: analyzer, now: time.Now}
}

// Recommend runs pattern analysis for the user and derives recommendations.
// Recurring patterns above the confidence floor become expected-expense
// advice; seasonal patterns apply only when today is the pattern's peak
// weekday. No other filtering or ranking is applied.
func (r *Recommender) Recommend(ctx context.Context, userID string) ([]model.Recommendation, error) {
	patterns, err := r.analyzer.Analyze(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromPatterns(patterns, r.today()), nil
}

// FromPatterns derives recommendations from already-computed patterns.
// today is the current Monday-based weekday.
func FromPatterns(patterns []model.Pattern, today int) []model.Recommendation {
	var recs []model.Recommendation
	for _, p := range patterns {
		switch p.Kind {
		case model.PatternRecurring:
			if p.Confidence <= recurringConfidenceFloor {
				continue
			}
			recs = append(recs, model.Recommendation{
				Kind:            model.RecommendationExpected,
				Description:     p.Data.BaseDescription,
				Category:        p.Category,
				EstimatedAmount: p.AvgAmount,
				Confidence:      p.Confidence,
				Reason:          fmt.Sprintf("Basado en %d gastos similares", p.Data.Occurrences),
			})
		case model.PatternSeasonal:
			if p.Confidence <= seasonalConfidenceFloor || p.Data.PeakWeekday != today {
				continue
			}
			category := strings.ToLower(string(p.Category))
			recs = append(recs, model.Recommendation{
				Kind:            model.RecommendationDailyTrend,
				Description:     fmt.Sprintf("Es probable que gastes en %s hoy", category),
				Category:        p.Category,
				EstimatedAmount: p.AvgAmount,
				Confidence:      p.Confidence,
				Reason: fmt.Sprintf("Sueles gastar en %s los %s",
					category, model.SpanishWeekdays[p.Data.PeakWeekday]),
			})
		}
	}
	return recs
}

func (r *Recommender) today() int {
	return feature.ExtractTemporal(r.now()).Weekday
}
