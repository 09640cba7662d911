package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/abhisek/diagz/internal/backend"
	"github.com/abhisek/diagz/internal/router"
	"github.com/abhisek/diagz/internal/screen"
	"github.com/abhisek/diagz/internal/screens"
	"github.com/abhisek/diagz/internal/screens/results"
	sess "github.com/abhisek/diagz/internal/session"
	"github.com/abhisek/diagz/internal/store"
	"github.com/abhisek/diagz/internal/ui/components"
	"github.com/abhisek/diagz/internal/ui/layout"
)

var errEmptyPaper = errors.New("this paper has no questions")

type phase int

const (
	phaseLoading    phase = iota // Fetching the paper
	phasePayment                 // Paper must be bought first
	phaseLoadFailed              // Fetch failed, retry possible
	phaseQuestions               // Taking the test
)

// SessionScreen implements screen.Screen for taking one question paper.
type SessionScreen struct {
	deps    screens.Deps
	paperID int
	phase   phase
	state   *sess.SessionState
	loadErr string

	payment      *backend.PaymentRequiredError
	checkout     *backend.PaymentSession
	checkoutErr  string
	checkoutBusy bool

	mc      bool // true when the current question is multiple choice
	input   components.AnswerInput
	choices components.ChoiceList
	submit  components.Button

	gridActive   bool
	gridCursor   int
	confirmLeave bool
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.StatusProvider = (*SessionScreen)(nil)
var _ screen.Disposer = (*SessionScreen)(nil)
var _ screen.BackHandler = (*SessionScreen)(nil)

// New creates a test screen for the given paper.
func New(deps screens.Deps, paperID int) *SessionScreen {
	s := &SessionScreen{
		deps:    deps,
		paperID: paperID,
	}
	s.submit = components.Button{Label: "Submit", BusyLabel: "Submitting...", Active: true}
	return s
}

func (s *SessionScreen) Init() tea.Cmd {
	return s.loadPaper()
}

func (s *SessionScreen) Title() string {
	if s.state != nil && s.state.Paper.Title != "" {
		return s.state.Paper.Title
	}
	return "Test"
}

func (s *SessionScreen) Status() string {
	if s.state == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d answered", s.state.AnsweredCount(), s.state.Len())
}

// HandlesBack keeps Esc for the leave confirmation while a test is open.
func (s *SessionScreen) HandlesBack() bool {
	return s.phase == phaseQuestions
}

// Dispose cancels any pending visit when the screen is left.
func (s *SessionScreen) Dispose() {
	if s.state != nil {
		s.state.Close()
	}
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	switch s.phase {
	case phasePayment:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Buy"},
			{Key: "R", Description: "Reload"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseLoadFailed:
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Back"},
		}
	case phaseQuestions:
	default:
		return nil
	}

	if s.confirmLeave {
		return []layout.KeyHint{
			{Key: "Y", Description: "Leave"},
			{Key: "N", Description: "Stay"},
		}
	}
	if s.gridActive {
		return []layout.KeyHint{
			{Key: "←→", Description: "Choose"},
			{Key: "Enter", Description: "Go"},
			{Key: "Esc", Description: "Close"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Tab", Description: "Next"},
		{Key: "Shift+Tab", Description: "Prev"},
		{Key: "Ctrl+G", Description: "Questions"},
		{Key: "Ctrl+S", Description: "Submit"},
	}
	if s.mc {
		hints = append([]layout.KeyHint{{Key: "↑↓ Enter", Description: "Choose"}}, hints...)
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Leave"})
}

func (s *SessionScreen) View(width, height int) string {
	switch s.phase {
	case phaseLoading:
		return renderLoading(width, height)
	case phaseLoadFailed:
		return renderError(width, height, s.loadErr)
	case phasePayment:
		return s.renderPayment(width, height)
	}
	if s.confirmLeave {
		return renderLeaveConfirm(width, height)
	}
	return s.renderQuestionView(width, height)
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case paperLoadedMsg:
		return s.handleLoaded(msg)

	case visitDueMsg:
		if s.state != nil {
			s.state.FireVisit(msg.Ticket)
		}
		return s, nil

	case submitDoneMsg:
		return s.handleSubmitDone(msg)

	case checkoutMsg:
		return s.handleCheckout(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	// Forward cursor blinks and the like to the text input.
	if s.phase == phaseQuestions && !s.mc {
		var cmd tea.Cmd
		s.input, cmd, _ = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

// loadPaper fetches the paper asynchronously.
func (s *SessionScreen) loadPaper() tea.Cmd {
	api, id := s.deps.API, s.paperID
	return func() tea.Msg {
		p, err := api.FetchPaper(context.Background(), id)
		return paperLoadedMsg{Paper: p, Err: err}
	}
}

// scheduleVisit delivers ticket back after the visit delay.
func scheduleVisit(ticket sess.VisitTicket) tea.Cmd {
	return tea.Tick(sess.VisitDelay, func(time.Time) tea.Msg {
		return visitDueMsg{Ticket: ticket}
	})
}

func (s *SessionScreen) handleLoaded(msg paperLoadedMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		if pr, ok := backend.IsPaymentRequired(msg.Err); ok {
			s.phase = phasePayment
			s.payment = pr
			return s, nil
		}
		s.phase = phaseLoadFailed
		s.loadErr = msg.Err.Error()
		return s, nil
	}
	if msg.Paper.Len() == 0 {
		s.phase = phaseLoadFailed
		s.loadErr = errEmptyPaper.Error()
		return s, nil
	}

	s.phase = phaseQuestions
	s.state = sess.NewSessionState(msg.Paper, uuid.NewString(), s.deps.Clock)

	var cmds []tea.Cmd
	if ticket, ok := s.state.Start(); ok {
		cmds = append(cmds, scheduleVisit(ticket))
	}
	cmds = append(cmds, s.showQuestion())
	return s, tea.Batch(cmds...)
}

// showQuestion rebuilds the answer widget for the current question from the
// tracker's stored answer.
func (s *SessionScreen) showQuestion() tea.Cmd {
	q := s.state.CurrentQuestion()
	answer := s.state.Answer(s.state.CurrentIndex)

	s.mc = q.IsMultipleChoice()
	if s.mc {
		s.choices = components.NewChoiceList(q.AnswerChoices, answer)
		return nil
	}
	s.input = components.NewAnswerInput("Type your answer...", answer)
	if s.state.Phase != sess.PhaseActive {
		s.input.Blur()
		return nil
	}
	return s.input.Init()
}

func (s *SessionScreen) navigated(ticket sess.VisitTicket, ok bool) tea.Cmd {
	if !ok {
		return nil
	}
	return tea.Batch(scheduleVisit(ticket), s.showQuestion())
}

func (s *SessionScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	switch s.phase {
	case phaseLoading:
		return s, nil
	case phaseLoadFailed:
		if key == "r" || key == "R" {
			return s.reload()
		}
		return s, nil
	case phasePayment:
		return s.handlePaymentKey(key)
	}

	if s.confirmLeave {
		switch key {
		case "y", "Y":
			s.confirmLeave = false
			return s, router.PopCmd
		case "n", "N", "esc":
			s.confirmLeave = false
		}
		return s, nil
	}

	if s.gridActive {
		return s.handleGridKey(key)
	}

	switch key {
	case "esc":
		s.confirmLeave = true
		return s, nil
	case "ctrl+s":
		return s, s.startSubmit()
	case "tab":
		return s, s.navigated(s.state.Next())
	case "shift+tab":
		return s, s.navigated(s.state.Prev())
	case "ctrl+g":
		s.gridActive = true
		s.gridCursor = s.state.CurrentIndex
		return s, nil
	}

	if s.state.Phase != sess.PhaseActive {
		return s, nil
	}

	if s.mc {
		var changed bool
		s.choices, changed = s.choices.Update(msg)
		if changed {
			s.state.RecordAnswer(s.choices.Value())
		}
		return s, nil
	}

	var cmd tea.Cmd
	var changed bool
	s.input, cmd, changed = s.input.Update(msg)
	if changed {
		s.state.RecordAnswer(s.input.Value())
	}
	return s, cmd
}

func (s *SessionScreen) handleGridKey(key string) (screen.Screen, tea.Cmd) {
	n := s.state.Len()
	switch key {
	case "esc", "ctrl+g":
		s.gridActive = false
	case "left", "h", "up", "k":
		s.gridCursor = max(s.gridCursor-1, 0)
	case "right", "l", "down", "j":
		s.gridCursor = min(s.gridCursor+1, n-1)
	case "home":
		s.gridCursor = 0
	case "end":
		s.gridCursor = n - 1
	case "enter":
		s.gridActive = false
		return s, s.navigated(s.state.Jump(s.gridCursor))
	}
	return s, nil
}

func (s *SessionScreen) reload() (screen.Screen, tea.Cmd) {
	s.phase = phaseLoading
	s.loadErr = ""
	s.payment = nil
	s.checkout = nil
	s.checkoutErr = ""
	return s, s.loadPaper()
}

func (s *SessionScreen) handlePaymentKey(key string) (screen.Screen, tea.Cmd) {
	switch key {
	case "r", "R":
		if s.checkoutBusy {
			return s, nil
		}
		return s.reload()
	case "enter", "b", "B":
		if s.checkoutBusy || s.payment == nil {
			return s, nil
		}
		s.checkoutBusy = true
		s.checkoutErr = ""
		api, productID, redirect := s.deps.API, s.payment.ProductID, s.deps.RedirectURL
		return s, func() tea.Msg {
			ps, err := api.CreatePaymentSession(context.Background(), productID, redirect)
			return checkoutMsg{Session: ps, Err: err}
		}
	}
	return s, nil
}

func (s *SessionScreen) handleCheckout(msg checkoutMsg) (screen.Screen, tea.Cmd) {
	s.checkoutBusy = false
	if msg.Err != nil {
		s.checkoutErr = msg.Err.Error()
		return s, nil
	}
	s.checkout = msg.Session
	return s, nil
}

// startSubmit closes the timeline and posts the payload. It is a no-op
// while a submission is already in flight.
func (s *SessionScreen) startSubmit() tea.Cmd {
	if s.state == nil || s.state.Phase != sess.PhaseActive {
		return nil
	}

	sub := s.state.PrepareSubmission()
	s.submit.Disabled = true
	s.input.Blur()

	summary := sess.BuildSummary(s.state, s.deps.Now())
	api, repo, title := s.deps.API, s.deps.Repo, s.state.Paper.Title
	attemptID := uuid.NewString()

	return func() tea.Msg {
		ctx := context.Background()
		id, err := api.Submit(ctx, sub)
		logSubmission(ctx, repo, attemptID, title, summary, sub, id, err)
		return submitDoneMsg{ResponseID: id, Err: err}
	}
}

// logSubmission records the attempt in the local event log. Logging
// failures never affect the submission.
func logSubmission(ctx context.Context, repo store.EventRepo, attemptID, title string, sum *sess.SessionSummary, sub sess.Submission, responseID int, err error) {
	if repo == nil {
		return
	}
	payload, _ := json.Marshal(sub)
	data := store.SubmissionEventData{
		AttemptID:      attemptID,
		SessionID:      sum.SessionID,
		PaperID:        sum.PaperID,
		PaperTitle:     title,
		TotalQuestions: sum.Total,
		Answered:       sub.Answered(),
		DurationSecs:   int(sum.Duration.Seconds()),
		Success:        err == nil,
		ResponseID:     responseID,
		Payload:        payload,
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}
	if logErr := repo.AppendSubmission(ctx, data); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log submission event: %v\n", logErr)
	}
}

func (s *SessionScreen) handleSubmitDone(msg submitDoneMsg) (screen.Screen, tea.Cmd) {
	s.submit.Disabled = false
	if msg.Err != nil {
		s.state.SubmitFailed(msg.Err)
		if !s.mc {
			return s, s.input.Focus()
		}
		return s, nil
	}

	s.state.SubmitSucceeded(msg.ResponseID)
	next := results.NewAfterSubmit(s.deps.API, msg.ResponseID)
	return s, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}
