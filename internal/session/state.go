package session

import (
	"time"

	"github.com/abhisek/diagz/internal/paper"
)

// SessionPhase represents the current phase of a test session.
type SessionPhase int

const (
	PhaseActive     SessionPhase = iota // Answering questions
	PhaseSubmitting                     // Submission in flight
	PhaseCompleted                      // Submission accepted
)

// SessionState tracks one attempt at a question paper. It is created when
// the paper loads and discarded when the test screen is left.
type SessionState struct {
	// Paper is the question paper being taken.
	Paper *paper.QuestionPaper

	// SessionID is the UUID for this attempt.
	SessionID string

	// CurrentIndex is the 0-based index of the question on screen.
	CurrentIndex int

	// PrevIndex is the index last seen by Navigate, used to detect transitions.
	PrevIndex int

	// Tracker owns answers and per-question event buckets.
	Tracker *Tracker

	// Phase is the current session phase.
	Phase SessionPhase

	// SubmitErr is the last submission failure, cleared on the next edit.
	SubmitErr error

	// ResponseID is the persisted response id once submission succeeds.
	ResponseID int

	// StartTime is when the paper finished loading.
	StartTime time.Time

	// Attempts counts submission attempts in this session.
	Attempts int

	// finalized is set once the timeline has been closed for submission and
	// reset by the next navigation, answer edit or delivered visit.
	finalized bool
}

// NewSessionState creates a session for a loaded paper.
func NewSessionState(p *paper.QuestionPaper, sessionID string, clock Clock) *SessionState {
	if clock == nil {
		clock = time.Now
	}
	return &SessionState{
		Paper:     p,
		SessionID: sessionID,
		Tracker:   NewTracker(clock),
		Phase:     PhaseActive,
		StartTime: clock(),
	}
}

// Len returns the number of questions.
func (s *SessionState) Len() int {
	return s.Paper.Len()
}

// CurrentQuestion returns the question on screen, or nil for an empty paper.
func (s *SessionState) CurrentQuestion() *paper.Question {
	if s.Len() == 0 {
		return nil
	}
	return &s.Paper.Questions[s.CurrentIndex]
}

// Start schedules the initial visit for the first question.
func (s *SessionState) Start() (VisitTicket, bool) {
	if s.Len() == 0 {
		return VisitTicket{}, false
	}
	return s.Tracker.RecordInitialVisit(s.Paper.Questions[0].ID)
}

// RecordNavigation records the transition between two question indices.
func (s *SessionState) RecordNavigation(oldIndex, newIndex int) (VisitTicket, bool) {
	if oldIndex == newIndex || !s.inRange(oldIndex) || !s.inRange(newIndex) {
		return VisitTicket{}, false
	}
	s.finalized = false
	return s.Tracker.RecordTransition(s.Paper.Questions[oldIndex].ID, s.Paper.Questions[newIndex].ID)
}

// FireVisit delivers a debounced visit. A visit landing after the timeline
// was closed reopens it, so the next submit closes it again.
func (s *SessionState) FireVisit(ticket VisitTicket) bool {
	if !s.Tracker.FireVisit(ticket) {
		return false
	}
	s.finalized = false
	return true
}

// Navigate moves to newIndex, clamped to the paper bounds. Navigation is
// ignored while a submission is in flight or after completion.
func (s *SessionState) Navigate(newIndex int) (VisitTicket, bool) {
	if s.Phase != PhaseActive || s.Len() == 0 {
		return VisitTicket{}, false
	}
	s.CurrentIndex = clamp(newIndex, 0, s.Len()-1)
	ticket, ok := s.RecordNavigation(s.PrevIndex, s.CurrentIndex)
	s.PrevIndex = s.CurrentIndex
	return ticket, ok
}

// Next moves to the following question.
func (s *SessionState) Next() (VisitTicket, bool) {
	return s.Navigate(s.CurrentIndex + 1)
}

// Prev moves to the preceding question.
func (s *SessionState) Prev() (VisitTicket, bool) {
	return s.Navigate(s.CurrentIndex - 1)
}

// Jump moves directly to question i.
func (s *SessionState) Jump(i int) (VisitTicket, bool) {
	return s.Navigate(i)
}

// RecordAnswer records an edit to the current question's answer.
func (s *SessionState) RecordAnswer(text string) {
	q := s.CurrentQuestion()
	if q == nil || s.Phase != PhaseActive {
		return
	}
	s.Tracker.RecordAnswer(q.ID, text)
	s.SubmitErr = nil
	s.finalized = false
}

// Answer returns the current answer for question i.
func (s *SessionState) Answer(i int) string {
	if !s.inRange(i) {
		return ""
	}
	a, _ := s.Tracker.Answer(s.Paper.Questions[i].ID)
	return a
}

// IsAnswered reports whether question i has a non-empty answer.
func (s *SessionState) IsAnswered(i int) bool {
	return s.Answer(i) != ""
}

// AnsweredCount returns how many questions have a non-empty answer.
func (s *SessionState) AnsweredCount() int {
	n := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsAnswered(i) {
			n++
		}
	}
	return n
}

// Progress returns answered / total in [0, 1].
func (s *SessionState) Progress() float64 {
	if s.Len() == 0 {
		return 0
	}
	return float64(s.AnsweredCount()) / float64(s.Len())
}

// PrepareSubmission closes the timeline and builds the payload. Calling it
// again without a navigation or answer edit in between returns the same
// payload without appending further exits, so a retried submit resends what
// the failed one sent.
func (s *SessionState) PrepareSubmission() Submission {
	if !s.finalized && s.Len() > 0 {
		s.Tracker.FinalizeForSubmission(s.CurrentQuestion().ID, s.Paper.QuestionIDs())
		s.finalized = true
	}
	s.Phase = PhaseSubmitting
	s.SubmitErr = nil
	s.Attempts++
	return BuildPayload(s.Paper, s.Tracker.Answers(), s.Tracker.Buckets())
}

// SubmitFailed returns the session to the active phase with its state intact.
func (s *SessionState) SubmitFailed(err error) {
	s.Phase = PhaseActive
	s.SubmitErr = err
}

// SubmitSucceeded marks the session completed.
func (s *SessionState) SubmitSucceeded(responseID int) {
	s.Phase = PhaseCompleted
	s.ResponseID = responseID
	s.Tracker.Cancel()
}

// Close cancels any pending visit. The session must not be used afterwards.
func (s *SessionState) Close() {
	s.Tracker.Cancel()
}

func (s *SessionState) inRange(i int) bool {
	return i >= 0 && i < s.Len()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
