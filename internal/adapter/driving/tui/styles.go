package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
)

var (
	colorFailing = lipgloss.Color("196") // red
	colorPassing = lipgloss.Color("46")  // green
	colorMissing = lipgloss.Color("220") // yellow
	colorIdle    = lipgloss.Color("240") // gray

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			PaddingLeft(1).
			PaddingRight(1)

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(colorFailing).
			PaddingLeft(1).
			PaddingRight(1)

	buildStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedBuildStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Background(lipgloss.Color("237"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	flashStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	flashErrStyle = lipgloss.NewStyle().
			Foreground(colorFailing)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusFailing:
		return "✗"
	case model.StatusPassing:
		return "✓"
	case model.StatusConfigMissing:
		return "!"
	default:
		return "…"
	}
}

func statusColor(s model.Status) lipgloss.Color {
	switch s {
	case model.StatusFailing:
		return colorFailing
	case model.StatusPassing:
		return colorPassing
	case model.StatusConfigMissing:
		return colorMissing
	default:
		return colorIdle
	}
}
