package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/diagz/internal/backend"
	"github.com/abhisek/diagz/internal/router"
	"github.com/abhisek/diagz/internal/screen"
	"github.com/abhisek/diagz/internal/screens/results"
	"github.com/abhisek/diagz/internal/store"
	"github.com/abhisek/diagz/internal/ui/layout"
	"github.com/abhisek/diagz/internal/ui/theme"
)

type historyLoadedMsg struct {
	Submissions []store.SubmissionEvent
	Err         error
}

// HistoryScreen displays submission attempts logged on this machine.
type HistoryScreen struct {
	eventRepo   store.EventRepo
	api         backend.API
	submissions []store.SubmissionEvent
	selected    int
	expanded    map[int]bool
	loaded      bool
	errMsg      string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen. api is used to open results and may be nil.
func New(eventRepo store.EventRepo, api backend.API) *HistoryScreen {
	return &HistoryScreen{
		eventRepo: eventRepo,
		api:       api,
		expanded:  make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo := s.eventRepo
	return func() tea.Msg {
		if repo == nil {
			return historyLoadedMsg{}
		}
		subs, err := repo.QuerySubmissions(context.Background(), store.QueryOpts{Limit: 50})
		return historyLoadedMsg{Submissions: subs, Err: err}
	}
}

func (s *HistoryScreen) Title() string {
	return "Submission History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "O", Description: "Open results"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.submissions = msg.Submissions
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.submissions)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		case "o", "O":
			return s, s.openResults()
		}
	}
	return s, nil
}

// openResults shows the backend results of the selected attempt, if it
// was accepted.
func (s *HistoryScreen) openResults() tea.Cmd {
	if s.api == nil || s.selected >= len(s.submissions) {
		return nil
	}
	sub := s.submissions[s.selected]
	if !sub.Success || sub.ResponseID == 0 {
		return nil
	}
	next := results.New(s.api, sub.ResponseID)
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: next}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.submissions) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No submissions yet. Take a test!")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, sub := range s.submissions {
		dateStr := sub.Timestamp.Local().Format("Jan 02, 2006 15:04")
		durationStr := fmt.Sprintf("%d:%02d", sub.DurationSecs/60, sub.DurationSecs%60)

		title := sub.PaperTitle
		if title == "" {
			title = fmt.Sprintf("Paper #%d", sub.PaperID)
		}

		status := "submitted"
		if !sub.Success {
			status = "failed"
		}

		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s  %-28s %s  %d/%d answered  %s",
			prefix, dateStr, truncate(title, 28), durationStr, sub.Answered, sub.TotalQuestions, status)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case i == s.selected:
			style = style.Foreground(theme.Primary).Bold(true)
		case !sub.Success:
			style = style.Foreground(theme.Error)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			for _, d := range details(sub) {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					theme.Hint.Render("    "+d)))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}

func details(sub store.SubmissionEvent) []string {
	out := []string{
		"Attempt: " + sub.AttemptID,
		"Session: " + sub.SessionID,
	}
	if sub.Success {
		out = append(out, fmt.Sprintf("Response: #%d (press O to open)", sub.ResponseID))
	} else {
		out = append(out, "Error: "+sub.ErrorMessage)
	}
	out = append(out, fmt.Sprintf("Payload: %d bytes", len(sub.Payload)))
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
