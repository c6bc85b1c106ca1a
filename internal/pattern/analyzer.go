// Package pattern mines recurring-description and weekday-concentration
// regularities from a user's recent expenses and derives recommendations
// from them.
package pattern

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/gastolab/centavo/internal/model"
	"github.com/gastolab/centavo/internal/service"
	"github.com/gastolab/centavo/internal/text"
)

const (
	// WindowDays is the trailing analysis window.
	WindowDays = 90
	// MinExpenses is the smallest history the analyzer works with.
	MinExpenses = 10
	// minRecurring is the occurrence floor for a recurring pattern.
	minRecurring = 3
	// minSeasonal is the per-category occurrence floor for a seasonal pattern.
	minSeasonal = 5
	// seasonalStdThreshold is the weekday-count deviation a category must
	// show before its concentration counts as a pattern.
	seasonalStdThreshold = 1.0
)

// Analyzer mines patterns over a storage-backed expense history.
type Analyzer struct {
	store service.Storage
	now   func() time.Time
}

// NewAnalyzer creates an analyzer reading from the given storage.
func NewAnalyzer(store service.Storage) *Analyzer {
	return &Analyzer{store: store, now: time.Now}
}

// Analyze gathers the user's expenses from the trailing window and returns
// the detected patterns. Fewer than MinExpenses expenses yields an empty
// list, not an error.
func (a *Analyzer) Analyze(ctx context.Context, userID string) ([]model.Pattern, error) {
	since := a.now().AddDate(0, 0, -WindowDays)
	expenses, err := a.store.GetExpenses(ctx, userID, service.ExpenseFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses for pattern analysis: %w", err)
	}

	if len(expenses) < MinExpenses {
		return nil, nil
	}

	detectedAt := a.now().UTC()
	patterns := recurringPatterns(expenses, userID, detectedAt)
	patterns = append(patterns, seasonalPatterns(expenses, userID, detectedAt)...)
	return patterns, nil
}

// recurringPatterns groups the window by normalized description and emits a
// pattern for every description seen at least minRecurring times.
func recurringPatterns(expenses []model.Expense, userID string, detectedAt time.Time) []model.Pattern {
	type group struct {
		rawCounts map[string]int
		catCounts map[model.Category]int
		amounts   []float64
	}
	groups := make(map[string]*group)

	for i := range expenses {
		e := &expenses[i]
		key := e.NormalizedText
		if key == "" {
			key = text.Normalize(e.Description)
		}
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &group{rawCounts: make(map[string]int), catCounts: make(map[model.Category]int)}
			groups[key] = g
		}
		g.rawCounts[e.Description]++
		g.catCounts[e.Category]++
		g.amounts = append(g.amounts, e.Amount)
	}

	keys := make([]string, 0, len(groups))
	for key, g := range groups {
		if len(g.amounts) >= minRecurring {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	patterns := make([]model.Pattern, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		count := len(g.amounts)
		avg, minAmt, maxAmt := amountStats(g.amounts)
		base := modeString(g.rawCounts)

		patterns = append(patterns, model.Pattern{
			DetectedAt:  detectedAt,
			UserID:      userID,
			Kind:        model.PatternRecurring,
			Key:         key,
			Description: fmt.Sprintf("Gasto recurrente: %s", base),
			Category:    modeCategory(g.catCounts),
			Frequency:   float64(count) / WindowDays,
			AvgAmount:   avg,
			Confidence:  math.Min(1, float64(count)/10),
			Data: model.PatternData{
				BaseDescription: base,
				Occurrences:     count,
				MinAmount:       minAmt,
				MaxAmount:       maxAmt,
			},
		})
	}
	return patterns
}

// seasonalPatterns emits a pattern for every category whose occurrences
// concentrate on particular weekdays.
func seasonalPatterns(expenses []model.Expense, userID string, detectedAt time.Time) []model.Pattern {
	byCategory := make(map[model.Category][]*model.Expense)
	for i := range expenses {
		e := &expenses[i]
		cat := e.Category
		if !cat.Valid() {
			cat = model.CategoryMisc
		}
		byCategory[cat] = append(byCategory[cat], e)
	}

	var patterns []model.Pattern
	for _, cat := range model.AllCategories() {
		members := byCategory[cat]
		if len(members) < minSeasonal {
			continue
		}

		weekdayCounts := make(map[int]int)
		var amountSum float64
		for _, e := range members {
			weekdayCounts[e.Weekday]++
			amountSum += e.Amount
		}

		std := countStd(weekdayCounts)
		if std <= seasonalStdThreshold {
			continue
		}

		peak, peakCount := peakWeekday(weekdayCounts)
		patterns = append(patterns, model.Pattern{
			DetectedAt:  detectedAt,
			UserID:      userID,
			Kind:        model.PatternSeasonal,
			Key:         string(cat),
			Description: fmt.Sprintf("Tendencia a gastar en %s los %s", cat, model.SpanishWeekdays[peak]),
			Category:    cat,
			Frequency:   float64(peakCount) / float64(len(members)),
			AvgAmount:   amountSum / float64(len(members)),
			Confidence:  math.Min(1, std/2),
			Data: model.PatternData{
				PeakWeekday:   peak,
				WeekdayCounts: weekdayCounts,
			},
		})
	}
	return patterns
}

func amountStats(amounts []float64) (avg, minAmt, maxAmt float64) {
	if len(amounts) == 0 {
		return 0, 0, 0
	}
	minAmt, maxAmt = amounts[0], amounts[0]
	var sum float64
	for _, a := range amounts {
		sum += a
		if a < minAmt {
			minAmt = a
		}
		if a > maxAmt {
			maxAmt = a
		}
	}
	return sum / float64(len(amounts)), minAmt, maxAmt
}

// countStd is the sample standard deviation over the weekday counts that
// actually occur; weekdays with no expenses do not enter the computation.
func countStd(counts map[int]int) float64 {
	if len(counts) < 2 {
		return 0
	}
	var sum float64
	for _, c := range counts {
		sum += float64(c)
	}
	mean := sum / float64(len(counts))

	var sq float64
	for _, c := range counts {
		d := float64(c) - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(counts)-1))
}

func peakWeekday(counts map[int]int) (weekday, count int) {
	weekday = -1
	for wd := 0; wd < 7; wd++ {
		if c, ok := counts[wd]; ok && c > count {
			weekday, count = wd, c
		}
	}
	if weekday < 0 {
		weekday = 0
	}
	return weekday, count
}

func modeCategory(counts map[model.Category]int) model.Category {
	best := model.CategoryMisc
	bestCount := -1
	for _, cat := range model.AllCategories() {
		if counts[cat] > bestCount {
			best, bestCount = cat, counts[cat]
		}
	}
	return best
}

func modeString(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", -1
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
