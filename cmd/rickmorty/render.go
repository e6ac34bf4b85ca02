package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Sternrassler/rickmorty-client/pkg/character"
	"github.com/Sternrassler/rickmorty-client/pkg/pagination"
)

const (
	colorAlive   = "#55CC55"
	colorDead    = "#E05D5D"
	colorUnknown = "#9A9A9A"
	colorAccent  = "#7AA2F7"
	colorMuted   = "#6B7280"
)

var (
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)).Width(6)
	nameStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).MarginTop(1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent)).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorAccent)).
			Padding(0, 1)

	rowTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)).Width(10)
)

func statusStyle(s character.Status) lipgloss.Style {
	color := colorUnknown
	switch s {
	case character.StatusAlive:
		color = colorAlive
	case character.StatusDead:
		color = colorDead
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
}

// renderRow renders one list row: id, name, status badge and species.
func renderRow(s character.Summary) string {
	name := s.Name
	if name == "" {
		name = "Unknown Character"
	}
	parts := []string{
		idStyle.Render(fmt.Sprintf("#%d", s.ID)),
		nameStyle.Render(name),
		statusStyle(s.Status).Render("● " + s.Status.String()),
	}
	if s.Species != "" {
		parts = append(parts, mutedStyle.Render(s.Species))
	}
	return strings.Join(parts, "  ")
}

func renderFooter(state pagination.State) string {
	return footerStyle.Render(fmt.Sprintf("%d characters, page %d of %d (%s)",
		state.Count, state.CurrentPage, state.TotalPages, state.Phase))
}

// renderDetail renders the detail card of a projected character.
func renderDetail(d character.DisplayState) string {
	lines := []string{
		titleStyle.Render(d.NavigationTitle),
		nameStyle.Render(d.Name) + "  " + statusStyle(d.StatusKind).Render(d.StatusText),
	}
	if d.ImageURL != nil {
		lines = append(lines, mutedStyle.Render(d.ImageURL.String()))
	}
	lines = append(lines, "")
	for _, row := range d.InfoRows {
		lines = append(lines, row.Icon+" "+rowTitleStyle.Render(row.Title)+row.Value)
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
