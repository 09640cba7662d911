package home

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/diagz/internal/ui/components"
	"github.com/abhisek/diagz/internal/ui/theme"
)

func (s *HomeScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw).Render("Diagnostic tests"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw).Render("Pick a test to start, or review a past attempt"))
	b.WriteString("\n\n")

	switch {
	case !s.loaded:
		b.WriteString(theme.Hint.Render("Loading tests..."))
		b.WriteString("\n\n")
	case s.errMsg != "":
		b.WriteString(theme.ErrorText.Width(cw).Render("Could not load tests: " + s.errMsg))
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("Press R to retry."))
		b.WriteString("\n\n")
	case len(s.papers) == 0:
		b.WriteString(theme.Hint.Render("No tests are available for your account yet."))
		b.WriteString("\n\n")
	}

	b.WriteString(s.menu.View())

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top,
		lipgloss.NewStyle().Width(cw).Render(b.String()))
}
