package screens

import (
	"time"

	"github.com/abhisek/diagz/internal/backend"
	"github.com/abhisek/diagz/internal/chat"
	"github.com/abhisek/diagz/internal/session"
	"github.com/abhisek/diagz/internal/store"
)

// Deps carries the services screens need. Repo and Agent may be nil; a nil
// Agent means chat is unavailable and AgentErr says why.
type Deps struct {
	API         backend.API
	Repo        store.EventRepo
	Agent       chat.Agent
	AgentErr    error
	Clock       session.Clock
	RedirectURL string
}

// Now reads the configured clock.
func (d Deps) Now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock()
}
