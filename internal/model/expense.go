// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"time"
)

// Category is one of the fixed expense classes. The wire values keep the
// Spanish labels the historical data was recorded with.
type Category string

const (
	// CategoryFood covers meals, groceries and everything edible.
	CategoryFood Category = "COMIDA"
	// CategoryTransport covers rides, fuel and parking.
	CategoryTransport Category = "TRANSPORTE"
	// CategoryMisc is the default bucket for everything else.
	CategoryMisc Category = "VARIOS"
)

// AllCategories lists every valid category in a stable order.
func AllCategories() []Category {
	return []Category{CategoryFood, CategoryTransport, CategoryMisc}
}

// ParseCategory maps free-form user input to a Category.
// Unknown input yields CategoryMisc and ok=false.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryFood, CategoryTransport, CategoryMisc:
		return Category(s), true
	}
	switch s {
	case "comida", "food":
		return CategoryFood, true
	case "transporte", "transport":
		return CategoryTransport, true
	case "varios", "misc", "other":
		return CategoryMisc, true
	}
	return CategoryMisc, false
}

// Valid reports whether c is one of the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryMisc:
		return true
	}
	return false
}

// DayPart is a coarse time-of-day bucket derived from the expense hour.
type DayPart string

// Day part buckets, in the wire values the original data used.
const (
	DayPartMorning   DayPart = "manana"    // [6, 12)
	DayPartAfternoon DayPart = "tarde"     // [12, 18)
	DayPartEvening   DayPart = "noche"     // [18, 22)
	DayPartDawn      DayPart = "madrugada" // everything else
)

// Expense represents a single recorded expense with its derived ML fields.
type Expense struct {
	Date            time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ID              string
	UserID          string
	Description     string
	NormalizedText  string
	DayPart         DayPart
	Category        Category
	Amount          float64
	Confidence      float64
	Weekday         int // Monday = 0
	Hour            int
	DescriptionFreq int
	IsWeekend       bool
	IsRecurring     bool
}

// ValidateAmount enforces the amount invariant shared by every entry point.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %.2f", amount)
	}
	return nil
}
