package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nconklindev/tally/internal/types"
)

var (
	AccentColor = lipgloss.Color("#2EC4B6")
	MutedColor  = lipgloss.Color("#6B7280")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor).
			MarginTop(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7ED9CF")).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(AccentColor).
			Padding(1, 2)

	headerCellStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// RenderTable draws the first n rows of t as a bordered static table for
// non-interactive output.
func RenderTable(t *types.Table, n int) string {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(MutedColor)).
		Headers(t.Headers()...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerCellStyle
			}
			return cellStyle
		})

	for _, row := range t.Head(n) {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = types.FormatCell(v)
		}
		tbl.Row(cells...)
	}
	return tbl.Render()
}
