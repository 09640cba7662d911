package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/diagz/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Disposer is implemented by screens that hold timers or connections. The
// router calls Dispose when the screen leaves the stack.
type Disposer interface {
	Dispose()
}

// BackHandler is implemented by screens that want Esc for themselves, e.g.
// to close a dialog before leaving. HandlesBack reports whether the screen
// consumes Esc in its current state.
type BackHandler interface {
	HandlesBack() bool
}

// StatusProvider is implemented by screens that show a short status on the
// right of the header, e.g. test progress.
type StatusProvider interface {
	Status() string
}
