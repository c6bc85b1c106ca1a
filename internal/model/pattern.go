package model

import "time"

// PatternKind identifies the family of a detected spending regularity.
type PatternKind string

const (
	// PatternRecurring marks a description that repeats within the window.
	PatternRecurring PatternKind = "RECURRENTE"
	// PatternSeasonal marks a category concentrated on particular weekdays.
	PatternSeasonal PatternKind = "ESTACIONAL"
)

// Pattern is a derived regularity in a user's expense history. Patterns are
// regenerated on each analysis run; they are never canonical data.
type Pattern struct {
	DetectedAt  time.Time
	UserID      string
	Kind        PatternKind
	Description string
	Key         string // grouping key: base description or category name
	Category    Category
	Frequency   float64 // occurrences per day (recurring) or peak-day share (seasonal)
	AvgAmount   float64
	Confidence  float64
	Data        PatternData
}

// PatternData carries the kind-specific payload of a pattern.
type PatternData struct {
	WeekdayCounts   map[int]int `json:"weekday_counts,omitempty"`
	BaseDescription string      `json:"base_description,omitempty"`
	Occurrences     int         `json:"occurrences,omitempty"`
	MinAmount       float64     `json:"min_amount,omitempty"`
	MaxAmount       float64     `json:"max_amount,omitempty"`
	PeakWeekday     int         `json:"peak_weekday,omitempty"`
}

// RecommendationKind identifies how a recommendation was derived.
type RecommendationKind string

const (
	// RecommendationExpected predicts a recurring expense will happen again.
	RecommendationExpected RecommendationKind = "gasto_esperado"
	// RecommendationDailyTrend flags a category the user tends to spend on today.
	RecommendationDailyTrend RecommendationKind = "tendencia_diaria"
)

// Recommendation is advice derived from a detected pattern.
type Recommendation struct {
	Kind            RecommendationKind
	Description     string
	Category        Category
	Reason          string
	EstimatedAmount float64
	Confidence      float64
}

// SpanishWeekdays maps the Monday-based weekday index to its display name.
var SpanishWeekdays = [7]string{
	"Lunes", "Martes", "Miercoles", "Jueves", "Viernes", "Sabado", "Domingo",
}
