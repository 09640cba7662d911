package components

import (
	"fmt"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/diagz/internal/ui/theme"
)

// ChoiceList is a single-select list of answer options. Moving the cursor
// does not change the answer; only Enter, Space or a number key picks.
type ChoiceList struct {
	Options []string
	Cursor  int

	// Chosen is the index of the picked option, -1 when none.
	Chosen int
}

// NewChoiceList creates a list with the option matching answer pre-selected.
func NewChoiceList(options []string, answer string) ChoiceList {
	c := ChoiceList{Options: options, Chosen: -1}
	for i, opt := range options {
		if opt == answer && answer != "" {
			c.Chosen = i
			c.Cursor = i
			break
		}
	}
	return c
}

// Update handles keyboard navigation and selection. The second result is
// true when the chosen option changed.
func (c ChoiceList) Update(msg tea.Msg) (ChoiceList, bool) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(c.Options) == 0 {
		return c, false
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
		return c, false
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
		return c, false
	case "enter", "space", " ":
		return c.pick(c.Cursor)
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(c.Options) {
		c.Cursor = n - 1
		return c.pick(n - 1)
	}
	return c, false
}

func (c ChoiceList) pick(i int) (ChoiceList, bool) {
	if c.Chosen == i {
		return c, false
	}
	c.Chosen = i
	return c, true
}

// Value returns the chosen option text, or "" when nothing is chosen.
func (c ChoiceList) Value() string {
	if c.Chosen < 0 || c.Chosen >= len(c.Options) {
		return ""
	}
	return c.Options[c.Chosen]
}

// View renders the options with a radio marker for the chosen one.
func (c ChoiceList) View() string {
	var s string
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Cursor {
			prefix = "▸ "
		}
		mark := "( )"
		if i == c.Chosen {
			mark = "(•)"
		}
		line := fmt.Sprintf("%s%s %d. %s", prefix, mark, i+1, opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case i == c.Cursor:
			style = theme.Selected
		case i == c.Chosen:
			style = lipgloss.NewStyle().Foreground(theme.Secondary)
		}
		s += style.Render(line) + "\n"
	}
	return s
}
