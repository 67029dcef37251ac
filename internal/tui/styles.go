package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EEEEEE"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).MarginTop(1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	logStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))

	alertBorder = map[string]lipgloss.Color{
		"info":    lipgloss.Color("#5B8DEF"),
		"warning": lipgloss.Color("#F7B801"),
		"error":   lipgloss.Color("#FF6B6B"),
	}
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#5B8DEF")).
		Bold(false)
	return s
}
