package home

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/diagz/internal/backend"
	"github.com/abhisek/diagz/internal/paper"
	"github.com/abhisek/diagz/internal/router"
	"github.com/abhisek/diagz/internal/screen"
	"github.com/abhisek/diagz/internal/screens"
	chatscreen "github.com/abhisek/diagz/internal/screens/chat"
	"github.com/abhisek/diagz/internal/screens/history"
	"github.com/abhisek/diagz/internal/screens/results"
	sessionscreen "github.com/abhisek/diagz/internal/screens/session"
	"github.com/abhisek/diagz/internal/ui/components"
	"github.com/abhisek/diagz/internal/ui/layout"
)

// homeLoadedMsg carries the test list and the user's past attempts. A
// failure to load attempts is tolerated and only hides that section.
type homeLoadedMsg struct {
	Papers    []paper.QuestionPaper
	Responses []backend.ResponseSummary
	Err       error
}

// HomeScreen lists available tests and past attempts.
type HomeScreen struct {
	deps      screens.Deps
	menu      components.Menu
	papers    []paper.QuestionPaper
	responses []backend.ResponseSummary
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps screens.Deps) *HomeScreen {
	s := &HomeScreen{deps: deps}
	s.menu = components.NewMenu(s.buildItems())
	return s
}

func (s *HomeScreen) Init() tea.Cmd {
	return s.load()
}

func (s *HomeScreen) load() tea.Cmd {
	api := s.deps.API
	return func() tea.Msg {
		ctx := context.Background()
		papers, err := api.ListPapers(ctx)
		if err != nil {
			return homeLoadedMsg{Err: err}
		}
		responses, _ := api.MyResponses(ctx)
		return homeLoadedMsg{Papers: papers, Responses: responses}
	}
}

func (s *HomeScreen) Title() string {
	return "Home"
}

func (s *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "R", Description: "Refresh"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case homeLoadedMsg:
		s.loaded = true
		s.errMsg = ""
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
		s.papers = msg.Papers
		s.responses = msg.Responses
		s.menu = components.NewMenu(s.buildItems())
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "r", "R":
			s.loaded = false
			return s, s.load()
		case "q":
			return s, tea.Quit
		}
	}

	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func push(next screen.Screen) tea.Cmd {
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: next}
	}
}

// buildItems lays out the menu: tests, past attempts, then tools. Section
// titles are disabled items so the cursor skips them.
func (s *HomeScreen) buildItems() []components.MenuItem {
	deps := s.deps
	var items []components.MenuItem

	if len(s.papers) > 0 {
		items = append(items, components.MenuItem{Label: "TESTS", Disabled: true})
		for _, p := range s.papers {
			id := p.ID
			items = append(items, components.MenuItem{
				Label:  paperLabel(p),
				Detail: fmt.Sprintf("%d questions", p.Len()),
				Action: func() tea.Cmd { return push(sessionscreen.New(deps, id)) },
			})
		}
	}

	if len(s.responses) > 0 {
		items = append(items, components.MenuItem{Label: "PAST ATTEMPTS", Disabled: true})
		for _, r := range s.responses {
			id := r.ID
			items = append(items, components.MenuItem{
				Label:  paperLabel(r.QuestionPaper),
				Detail: r.CreatedAt.Local().Format("Jan 02, 2006 15:04"),
				Action: func() tea.Cmd { return push(results.New(deps.API, id)) },
			})
		}
	}

	items = append(items,
		components.MenuItem{Label: "MORE", Disabled: true},
		components.MenuItem{Label: "Tutor chat", Action: func() tea.Cmd {
			return push(chatscreen.New(deps.Agent, deps.AgentErr))
		}},
		components.MenuItem{Label: "Submission history", Action: func() tea.Cmd {
			return push(history.New(deps.Repo, deps.API))
		}},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)
	return items
}

func paperLabel(p paper.QuestionPaper) string {
	if p.Title != "" {
		return p.Title
	}
	return fmt.Sprintf("Paper #%d", p.ID)
}
