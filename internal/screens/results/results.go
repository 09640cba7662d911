package results

import (
	"context"
	"encoding/json"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/diagz/internal/backend"
	"github.com/abhisek/diagz/internal/paper"
	"github.com/abhisek/diagz/internal/router"
	"github.com/abhisek/diagz/internal/screen"
	"github.com/abhisek/diagz/internal/ui/layout"
)

type responseLoadedMsg struct {
	Response *backend.Response
	Err      error
}

// ResultsScreen shows a scored attempt with per-question feedback.
type ResultsScreen struct {
	api        backend.API
	responseID int
	submitted  bool

	resp    *backend.Response
	loaded  bool
	errMsg  string
	offset  int
	visible int
}

var _ screen.Screen = (*ResultsScreen)(nil)
var _ screen.KeyHintProvider = (*ResultsScreen)(nil)
var _ screen.StatusProvider = (*ResultsScreen)(nil)

// New creates a results screen for a stored response.
func New(api backend.API, responseID int) *ResultsScreen {
	return &ResultsScreen{api: api, responseID: responseID}
}

// NewAfterSubmit is New with a confirmation banner for a fresh submission.
func NewAfterSubmit(api backend.API, responseID int) *ResultsScreen {
	s := New(api, responseID)
	s.submitted = true
	return s
}

func (s *ResultsScreen) Init() tea.Cmd {
	return s.load()
}

func (s *ResultsScreen) load() tea.Cmd {
	api, id := s.api, s.responseID
	return func() tea.Msg {
		resp, err := api.GetResponse(context.Background(), id)
		return responseLoadedMsg{Response: resp, Err: err}
	}
}

func (s *ResultsScreen) Title() string {
	return "Results"
}

func (s *ResultsScreen) Status() string {
	if s.resp == nil {
		return ""
	}
	return s.resp.ScoreLine()
}

func (s *ResultsScreen) KeyHints() []layout.KeyHint {
	if s.errMsg != "" {
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ResultsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case responseLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.resp = msg.Response
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r", "R":
			if s.errMsg != "" {
				s.errMsg = ""
				s.loaded = false
				return s, s.load()
			}
		case "enter":
			return s, router.PopCmd
		case "up", "k":
			s.scroll(-1)
		case "down", "j":
			s.scroll(1)
		case "pgup":
			s.scroll(-max(s.visible-1, 1))
		case "pgdown", "space":
			s.scroll(max(s.visible-1, 1))
		case "home", "g":
			s.offset = 0
		}
	}
	return s, nil
}

func (s *ResultsScreen) scroll(delta int) {
	s.offset = max(s.offset+delta, 0)
}

// resources decodes the study materials attached to a response. Entries
// that are not material objects are skipped.
func resources(raw []json.RawMessage) []paper.Material {
	var out []paper.Material
	for _, r := range raw {
		var m paper.Material
		if err := json.Unmarshal(r, &m); err != nil || m.URL == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}
