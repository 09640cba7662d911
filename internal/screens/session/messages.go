package session

import (
	"github.com/abhisek/diagz/internal/backend"
	"github.com/abhisek/diagz/internal/paper"
	sess "github.com/abhisek/diagz/internal/session"
)

// paperLoadedMsg is sent when the question paper fetch finishes.
type paperLoadedMsg struct {
	Paper *paper.QuestionPaper
	Err   error
}

// visitDueMsg is sent when a scheduled visit's delay has elapsed.
type visitDueMsg struct {
	Ticket sess.VisitTicket
}

// submitDoneMsg is sent when the submission request finishes.
type submitDoneMsg struct {
	ResponseID int
	Err        error
}

// checkoutMsg is sent when payment session creation finishes.
type checkoutMsg struct {
	Session *backend.PaymentSession
	Err     error
}
