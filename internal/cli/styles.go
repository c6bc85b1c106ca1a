// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gastolab/centavo/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#F4A261")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4")
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D")
	// ErrorColor indicates errors or failure messages.
	ErrorColor = lipgloss.Color("#FF6B6B")
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	categoryStyles = map[model.Category]lipgloss.Style{
		model.CategoryFood:      lipgloss.NewStyle().Foreground(lipgloss.Color("#E76F51")),
		model.CategoryTransport: lipgloss.NewStyle().Foreground(lipgloss.Color("#2A9D8F")),
		model.CategoryMisc:      lipgloss.NewStyle().Foreground(SubtleColor),
	}
)

// Icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	CoinIcon    = "🪙"
	ChartIcon   = "📊"
	BrainIcon   = "🧠"
	AlertIcon   = "🚨"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a section title.
func FormatTitle(title string) string {
	return TitleStyle.Render(title)
}

// FormatAmount renders a monetary amount with two decimals.
func FormatAmount(amount float64) string {
	return BoldStyle.Render(fmt.Sprintf("$%.2f", amount))
}

// FormatCategory renders a category with its theme color.
func FormatCategory(category model.Category) string {
	if style, ok := categoryStyles[category]; ok {
		return style.Render(string(category))
	}
	return string(category)
}

// FormatConfidence renders a confidence score as a colored percentage.
// High confidence reads as success, middling as warning, low as error.
func FormatConfidence(confidence float64) string {
	label := fmt.Sprintf("%.0f%%", confidence*100)
	switch {
	case confidence >= 0.8:
		return SuccessStyle.Render(label)
	case confidence >= 0.5:
		return WarningStyle.Render(label)
	default:
		return ErrorStyle.Render(label)
	}
}

// FormatSeverity renders an anomaly severity bar like [███░░░░░░░].
func FormatSeverity(severity float64) string {
	if severity < 0 {
		severity = 0
	}
	if severity > 1 {
		severity = 1
	}
	filled := int(severity*10 + 0.5)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
	if severity >= 0.7 {
		return ErrorStyle.Render("[" + bar + "]")
	}
	return WarningStyle.Render("[" + bar + "]")
}
