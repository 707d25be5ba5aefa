package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ericfisherdev/cfstatus/internal/domain/model"
)

const defaultWidth = 80

func (m Model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder

	b.WriteString(renderHeader(m.snapshot, m.poller.Window()))
	b.WriteString("\n")

	if m.banner != nil {
		b.WriteString(bannerStyle.Render(truncate(m.banner.Title()+": "+m.banner.Subtitle(), width-2)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderBuilds(m, width))

	if m.flash != "" {
		style := flashStyle
		if m.flashErr {
			style = flashErrStyle
		}
		b.WriteString("\n")
		b.WriteString(style.Render(truncate(m.flash, width)))
	}

	b.WriteString("\n")
	b.WriteString(footerStyle.Render(footer(m.snapshot)))
	return b.String()
}

func renderHeader(snap model.Snapshot, window model.TimeWindow) string {
	status := lipgloss.NewStyle().
		Bold(true).
		Foreground(statusColor(snap.Status)).
		Render(statusIcon(snap.Status) + " " + statusLabel(snap))

	return headerStyle.Render("cfstatus") + "│ " + status + " │ " + window.String()
}

func statusLabel(snap model.Snapshot) string {
	switch snap.Status {
	case model.StatusFailing:
		return fmt.Sprintf("%d failing", len(snap.Active))
	case model.StatusPassing:
		return "all builds passing"
	case model.StatusConfigMissing:
		return "configuration missing"
	default:
		return "checking…"
	}
}

func renderBuilds(m Model, width int) string {
	switch m.snapshot.Status {
	case model.StatusConfigMissing:
		return emptyStyle.Render("  Set " + model.SettingAPIKey.Label() + " and " + model.SettingUsername.Label() +
			" with `cfstatus config set`.")
	case model.StatusIdle:
		return emptyStyle.Render("  waiting for the first poll")
	}
	if len(m.snapshot.Active) == 0 {
		return emptyStyle.Render("  (no failed builds)")
	}

	now := m.now()
	var b strings.Builder
	for i, build := range m.snapshot.Active {
		line := truncate(build.Title(now), width-4)
		if i == m.cursor {
			b.WriteString(selectedBuildStyle.Render("▸ " + line))
		} else {
			b.WriteString(buildStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func footer(snap model.Snapshot) string {
	var keys []string
	if len(snap.Active) > 0 {
		keys = append(keys, "↑/↓:select", "d:mark fixed", "r:restart", "o:view")
	}
	keys = append(keys, "w:window", "n:notifications", "s:show on restart", "R:refresh", "q:quit")

	line := strings.Join(keys, " ")
	if !snap.TakenAt.IsZero() {
		line = "Last checked " + snap.TakenAt.Format("15:04:05") + " │ " + line
	}
	return line
}

func truncate(s string, width int) string {
	if width <= 3 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
