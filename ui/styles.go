package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/opsgrid/diskwatch/model"
)

var (
	// Colors
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorOrange = lipgloss.Color("#FFB86C")
	colorWhite  = lipgloss.Color("#F8F8F2")
	colorGray   = lipgloss.Color("#6272A4")
	colorPanel  = lipgloss.Color("#44475A")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	labelStyle    = lipgloss.NewStyle().Foreground(colorGray)
	valueStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	warnStyle     = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	critStyle     = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(colorGreen)
	headerStyle   = lipgloss.NewStyle().Foreground(colorOrange).Bold(true)
	selectedStyle = lipgloss.NewStyle().Background(colorPanel).Foreground(colorWhite)
	dimStyle      = lipgloss.NewStyle().Foreground(colorGray)
	helpStyle     = lipgloss.NewStyle().Foreground(colorGray)
)

func statusStyle(s model.Status) lipgloss.Style {
	switch s {
	case model.StatusCritical:
		return critStyle
	case model.StatusWarning:
		return warnStyle
	default:
		return okStyle
	}
}

// healthColor maps a 0-100 score, 100 being healthy.
func healthColor(score int) lipgloss.Style {
	switch {
	case score < 50:
		return critStyle
	case score < 80:
		return warnStyle
	default:
		return okStyle
	}
}

func loadColor(pct float64) lipgloss.Style {
	switch {
	case pct >= 80:
		return critStyle
	case pct >= 50:
		return warnStyle
	default:
		return okStyle
	}
}
