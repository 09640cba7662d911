package chat

import (
	"strings"

	"charm.land/lipgloss/v2"

	chatcore "github.com/abhisek/diagz/internal/chat"
	"github.com/abhisek/diagz/internal/ui/components"
	"github.com/abhisek/diagz/internal/ui/theme"
)

func (s *ChatScreen) View(width, height int) string {
	if s.agent == nil {
		return lipgloss.NewStyle().
			Width(width).
			Align(lipgloss.Center).
			Foreground(theme.TextDim).
			Render("\n\n\n  " + s.agentErr.Error())
	}

	cw := components.ContentWidth(width)

	footer := s.input.View()
	if s.conv.Err != nil {
		footer = theme.ErrorText.Render("Error: "+s.conv.Err.Error()) + "\n" + footer
	}

	// Show the tail of the transcript that fits above the input.
	room := max(height-lipgloss.Height(footer)-1, 1)
	lines := strings.Split(s.renderTranscript(cw), "\n")
	if len(lines) > room {
		lines = lines[len(lines)-room:]
	}

	body := strings.Join(lines, "\n") + "\n" + footer
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, body)
}

func (s *ChatScreen) renderTranscript(cw int) string {
	if len(s.conv.Messages) == 0 {
		return theme.Hint.Render("Ask about a topic you got wrong, or how to prepare for a test.")
	}

	var b strings.Builder
	for i, m := range s.conv.Messages {
		switch m.Sender {
		case chatcore.SenderUser:
			b.WriteString(lipgloss.PlaceHorizontal(cw, lipgloss.Right,
				theme.UserBubble.Width(min(lipgloss.Width(m.Text)+2, cw*3/4)).Render(m.Text)))
		default:
			text := m.Text
			if text == "" && s.conv.Streaming && i == len(s.conv.Messages)-1 {
				text = "..."
			}
			b.WriteString(theme.BotBubble.Width(cw * 3 / 4).Render(text))
		}
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
