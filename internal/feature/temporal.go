// Package feature derives the numeric and temporal signals used by the
// classifier and the anomaly detector.
package feature

import (
	"time"

	"github.com/gastolab/centavo/internal/model"
)

// Temporal holds the features derived from an expense timestamp.
type Temporal struct {
	DayPart      model.DayPart
	Weekday      int // Monday = 0
	Hour         int
	Month        int
	IsWeekend    bool
	IsMonthStart bool // day <= 5
	IsMonthEnd   bool // day >= 25
}

// ExtractTemporal derives temporal features from a timestamp.
// It is a pure function with no failure mode.
func ExtractTemporal(ts time.Time) Temporal {
	weekday := mondayWeekday(ts)
	return Temporal{
		Weekday:      weekday,
		Hour:         ts.Hour(),
		Month:        int(ts.Month()),
		IsWeekend:    weekday >= 5,
		IsMonthStart: ts.Day() <= 5,
		IsMonthEnd:   ts.Day() >= 25,
		DayPart:      DayPartForHour(ts.Hour()),
	}
}

// DayPartForHour buckets an hour into a coarse time-of-day band.
func DayPartForHour(hour int) model.DayPart {
	switch {
	case hour >= 6 && hour < 12:
		return model.DayPartMorning
	case hour >= 12 && hour < 18:
		return model.DayPartAfternoon
	case hour >= 18 && hour < 22:
		return model.DayPartEvening
	default:
		return model.DayPartDawn
	}
}

// mondayWeekday converts Go's Sunday-based weekday to the Monday=0 indexing
// the rest of the pipeline uses.
func mondayWeekday(ts time.Time) int {
	return (int(ts.Weekday()) + 6) % 7
}
