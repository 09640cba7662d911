package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/diagz/internal/backend"
	"github.com/abhisek/diagz/internal/backend/backendtest"
	"github.com/abhisek/diagz/internal/paper"
	"github.com/abhisek/diagz/internal/router"
	"github.com/abhisek/diagz/internal/screens"
	"github.com/abhisek/diagz/internal/screens/results"
	sess "github.com/abhisek/diagz/internal/session"
	"github.com/abhisek/diagz/internal/store"
)

// mockEventRepo records submissions; other methods are never called.
type mockEventRepo struct {
	store.EventRepo
	submissions []store.SubmissionEventData
}

func (m *mockEventRepo) AppendSubmission(_ context.Context, data store.SubmissionEventData) error {
	m.submissions = append(m.submissions, data)
	return nil
}

// failingEventRepo rejects every submission log write.
type failingEventRepo struct {
	store.EventRepo
	calls int
}

func (m *failingEventRepo) AppendSubmission(context.Context, store.SubmissionEventData) error {
	m.calls++
	return errors.New("disk full")
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func ctrlKey(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

func shiftTab() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}
}

type fixture struct {
	screen *SessionScreen
	api    *backendtest.FakeAPI
	repo   *mockEventRepo
	clock  *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api: &backendtest.FakeAPI{
			FetchPaperFn: func(id int) (*paper.QuestionPaper, error) { return backendtest.Paper(id), nil },
		},
		repo:  &mockEventRepo{},
		clock: &fakeClock{now: time.UnixMilli(1_000_000)},
	}
	f.screen = New(screens.Deps{API: f.api, Repo: f.repo, Clock: f.clock.Now}, 3)
	return f
}

// load runs the paper fetch and hands the result to the screen. The tick
// command for the initial visit is not executed; tests fire visits by hand.
func (f *fixture) load(t *testing.T) {
	t.Helper()
	f.screen.Update(f.screen.Init()())
	if f.screen.phase != phaseQuestions {
		t.Fatalf("expected question phase, got %d (err %q)", f.screen.phase, f.screen.loadErr)
	}
}

// firePending delivers the pending visit as if its delay elapsed.
func (f *fixture) firePending(t *testing.T) {
	t.Helper()
	ticket, ok := f.screen.state.Tracker.Pending()
	if !ok {
		t.Fatal("expected a pending visit")
	}
	f.clock.Advance(sess.VisitDelay)
	f.screen.Update(visitDueMsg{Ticket: ticket})
}

func TestLoadSchedulesInitialVisit(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	if f.screen.Title() != "Go fundamentals" {
		t.Errorf("expected paper title, got %q", f.screen.Title())
	}
	if got := f.screen.state.Tracker.Bucket(11).Visits; len(got) != 0 {
		t.Errorf("expected no visit before the delay, got %v", got)
	}

	f.firePending(t)

	visits := f.screen.state.Tracker.Bucket(11).Visits
	if len(visits) != 1 || visits[0] != 1_000_200 {
		t.Errorf("expected one visit at 1000200, got %v", visits)
	}
}

func TestTabNavigationRecordsExitAndVisit(t *testing.T) {
	f := newFixture(t)
	f.load(t)
	f.firePending(t)

	f.clock.Advance(time.Second)
	f.screen.Update(specialKey(tea.KeyTab))

	if f.screen.state.CurrentIndex != 1 {
		t.Fatalf("expected index 1, got %d", f.screen.state.CurrentIndex)
	}
	if !f.screen.mc {
		t.Error("expected question 2 to render as multiple choice")
	}
	if exits := f.screen.state.Tracker.Bucket(11).Exits; len(exits) != 1 || exits[0] != 1_001_200 {
		t.Errorf("expected exit at 1001200, got %v", exits)
	}

	f.firePending(t)
	if visits := f.screen.state.Tracker.Bucket(12).Visits; len(visits) != 1 {
		t.Errorf("expected one visit on question 12, got %v", visits)
	}

	// Tab on the last question stays put and schedules nothing new.
	_, cmd := f.screen.Update(specialKey(tea.KeyTab))
	if cmd != nil {
		t.Error("expected no command at the last question")
	}

	f.screen.Update(shiftTab())
	if f.screen.state.CurrentIndex != 0 {
		t.Errorf("expected shift+tab to go back, got %d", f.screen.state.CurrentIndex)
	}
}

func TestQuickNavigationDropsSupersededVisit(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	initial, _ := f.screen.state.Tracker.Pending()
	f.screen.Update(specialKey(tea.KeyTab))

	// The stale initial visit fires after navigation; it must be ignored.
	f.screen.Update(visitDueMsg{Ticket: initial})

	if visits := f.screen.state.Tracker.Bucket(11).Visits; len(visits) != 0 {
		t.Errorf("expected no visit for question 11, got %v", visits)
	}
}

func TestTypingAndChoosingRecordAnswers(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	for _, r := range "go" {
		f.clock.Advance(10 * time.Millisecond)
		f.screen.Update(keyPress(r))
	}
	if got := f.screen.state.Answer(0); got != "go" {
		t.Errorf("expected answer %q, got %q", "go", got)
	}
	if n := len(f.screen.state.Tracker.Bucket(11).Answers); n != 2 {
		t.Errorf("expected 2 answer stamps, got %d", n)
	}

	f.screen.Update(specialKey(tea.KeyTab))
	f.screen.Update(keyPress('2'))
	if got := f.screen.state.Answer(1); got != "empty map" {
		t.Errorf("expected choice %q, got %q", "empty map", got)
	}

	// Moving the cursor alone is not an answer change.
	f.screen.Update(specialKey(tea.KeyDown))
	if n := len(f.screen.state.Tracker.Bucket(12).Answers); n != 1 {
		t.Errorf("expected 1 answer stamp after cursor move, got %d", n)
	}

	// Coming back restores the typed answer in the input.
	f.screen.Update(shiftTab())
	if f.screen.input.Value() != "go" {
		t.Errorf("expected input to be restored, got %q", f.screen.input.Value())
	}
	if f.screen.Status() != "2/2 answered" {
		t.Errorf("unexpected status %q", f.screen.Status())
	}
}

func TestGridJump(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	f.screen.Update(ctrlKey('g'))
	if !f.screen.gridActive {
		t.Fatal("expected grid to open")
	}
	if !f.screen.HandlesBack() {
		t.Error("expected screen to keep Esc while testing")
	}

	f.screen.Update(specialKey(tea.KeyRight))
	f.screen.Update(specialKey(tea.KeyRight))
	if f.screen.gridCursor != 1 {
		t.Errorf("expected cursor clamped to 1, got %d", f.screen.gridCursor)
	}
	f.screen.Update(specialKey(tea.KeyEnter))

	if f.screen.gridActive {
		t.Error("expected grid to close after jump")
	}
	if f.screen.state.CurrentIndex != 1 {
		t.Errorf("expected jump to question 2, got %d", f.screen.state.CurrentIndex)
	}
}

func TestSubmitSuccess(t *testing.T) {
	f := newFixture(t)
	f.api.SubmitFn = func(sub sess.Submission) (int, error) { return 99, nil }
	f.load(t)
	f.screen.Update(keyPress('x'))

	f.clock.Advance(time.Second)
	_, cmd := f.screen.Update(ctrlKey('s'))
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	if !f.screen.submit.Disabled {
		t.Error("expected submit control to be disabled while in flight")
	}
	if !strings.Contains(f.screen.View(100, 40), "Submitting...") {
		t.Error("expected busy label in view")
	}

	// A second Ctrl+S while in flight does nothing.
	if _, again := f.screen.Update(ctrlKey('s')); again != nil {
		t.Error("expected no second submission while in flight")
	}

	done := cmd()
	subs := f.api.Submissions()
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(subs))
	}
	if subs[0].QuestionPaperID != 3 || len(subs[0].Answers) != 2 {
		t.Errorf("unexpected payload %+v", subs[0])
	}
	if subs[0].Answers[0].Answer != "x" || subs[0].Answers[1].Answer != "" {
		t.Errorf("unexpected answers %+v", subs[0].Answers)
	}
	if len(subs[0].Answers[0].QuestionExitTimestamps) != 1 {
		t.Errorf("expected submission exit on the current question")
	}

	if len(f.repo.submissions) != 1 {
		t.Fatalf("expected 1 logged submission, got %d", len(f.repo.submissions))
	}
	logged := f.repo.submissions[0]
	if !logged.Success || logged.ResponseID != 99 || logged.Answered != 1 || logged.TotalQuestions != 2 {
		t.Errorf("unexpected logged submission %+v", logged)
	}
	if len(logged.Payload) == 0 {
		t.Error("expected payload JSON to be logged")
	}

	_, next := f.screen.Update(done)
	if f.screen.state.Phase != sess.PhaseCompleted {
		t.Errorf("expected completed phase, got %d", f.screen.state.Phase)
	}
	replace, ok := next().(router.ReplaceScreenMsg)
	if !ok {
		t.Fatal("expected ReplaceScreenMsg")
	}
	if _, ok := replace.Screen.(*results.ResultsScreen); !ok {
		t.Errorf("expected results screen, got %T", replace.Screen)
	}
}

func TestSubmitFailureKeepsSessionAndRetries(t *testing.T) {
	f := newFixture(t)
	calls := 0
	f.api.SubmitFn = func(sub sess.Submission) (int, error) {
		calls++
		if calls == 1 {
			return 0, &backend.APIError{StatusCode: 500, Endpoint: "POST /v1/api/responses", Message: "database unavailable"}
		}
		return 5, nil
	}
	f.load(t)
	f.screen.Update(keyPress('a'))

	_, cmd := f.screen.Update(ctrlKey('s'))
	f.screen.Update(cmd())

	if f.screen.state.Phase != sess.PhaseActive {
		t.Fatalf("expected active phase after failure, got %d", f.screen.state.Phase)
	}
	if f.screen.submit.Disabled {
		t.Error("expected submit control to be enabled again")
	}
	view := f.screen.View(100, 40)
	if !strings.Contains(view, "database unavailable") {
		t.Error("expected inline error with server message")
	}
	if f.screen.state.Answer(0) != "a" {
		t.Error("expected answers to survive the failure")
	}
	if len(f.repo.submissions) != 1 || f.repo.submissions[0].Success {
		t.Errorf("expected failed attempt to be logged, got %+v", f.repo.submissions)
	}

	f.clock.Advance(time.Second)
	_, cmd = f.screen.Update(ctrlKey('s'))
	if cmd == nil {
		t.Fatal("expected retry to submit")
	}
	cmd()

	subs := f.api.Submissions()
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	first, second := subs[0].Answers[0], subs[1].Answers[0]
	if len(first.QuestionExitTimestamps) != len(second.QuestionExitTimestamps) {
		t.Errorf("expected retry to resend the same exits, got %v then %v",
			first.QuestionExitTimestamps, second.QuestionExitTimestamps)
	}
}

func TestFailedSubmitBeforeDelayKeepsVisit(t *testing.T) {
	f := newFixture(t)
	f.api.SubmitFn = func(sub sess.Submission) (int, error) {
		return 0, &backend.APIError{StatusCode: 503, Endpoint: "POST /v1/api/responses"}
	}
	f.load(t)
	initial, ok := f.screen.state.Tracker.Pending()
	if !ok {
		t.Fatal("expected the initial visit to be pending")
	}

	f.clock.Advance(100 * time.Millisecond)
	_, cmd := f.screen.Update(ctrlKey('s'))
	f.screen.Update(cmd())

	f.clock.Advance(100 * time.Millisecond)
	f.screen.Update(visitDueMsg{Ticket: initial})

	visits := f.screen.state.Tracker.Bucket(11).Visits
	if len(visits) != 1 || visits[0] != 1_000_200 {
		t.Fatalf("expected one visit at 1000200 after the failed submit, got %v", visits)
	}

	// Dwell, move on, and submit again.
	f.api.SubmitFn = func(sub sess.Submission) (int, error) { return 8, nil }
	f.clock.Advance(30 * time.Second)
	f.screen.Update(specialKey(tea.KeyTab))
	_, cmd = f.screen.Update(ctrlKey('s'))
	cmd()

	subs := f.api.Submissions()
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	q1 := subs[1].Answers[0]
	if len(q1.QuestionVisitTimestamps) != 1 || q1.QuestionVisitTimestamps[0] != 1_000_200 {
		t.Errorf("expected the visit in the final payload, got %v", q1.QuestionVisitTimestamps)
	}
	if n := len(q1.QuestionExitTimestamps); n != 2 || q1.QuestionExitTimestamps[n-1] != 1_030_200 {
		t.Errorf("expected exits [1000100 1030200], got %v", q1.QuestionExitTimestamps)
	}
}

func TestSubmissionLogFailureDoesNotAffectSubmit(t *testing.T) {
	f := newFixture(t)
	repo := &failingEventRepo{}
	f.screen = New(screens.Deps{API: f.api, Repo: repo, Clock: f.clock.Now}, 3)
	f.api.SubmitFn = func(sub sess.Submission) (int, error) { return 12, nil }
	f.load(t)

	_, cmd := f.screen.Update(ctrlKey('s'))
	done, ok := cmd().(submitDoneMsg)
	if !ok {
		t.Fatal("expected submitDoneMsg")
	}
	if done.Err != nil || done.ResponseID != 12 {
		t.Errorf("expected response 12 without error, got %+v", done)
	}
	if repo.calls != 1 {
		t.Errorf("expected one log attempt, got %d", repo.calls)
	}

	f.screen.Update(done)
	if f.screen.state.Phase != sess.PhaseCompleted {
		t.Errorf("expected completed phase, got %d", f.screen.state.Phase)
	}
}

func TestPaymentRequiredFlow(t *testing.T) {
	f := newFixture(t)
	f.api.FetchPaperFn = func(int) (*paper.QuestionPaper, error) {
		return nil, &backend.PaymentRequiredError{ProductID: 4, ProductName: "Go Pro Pack", Cost: 499, Currency: "INR"}
	}
	var redirect string
	f.api.CreatePaymentSessionFn = func(productID int, redirectURL string) (*backend.PaymentSession, error) {
		if productID != 4 {
			t.Errorf("expected product 4, got %d", productID)
		}
		redirect = redirectURL
		return &backend.PaymentSession{PaymentSessionID: "ps_123", OrderID: "order_9"}, nil
	}
	f.screen.deps.RedirectURL = "https://example.com/back"

	f.screen.Update(f.screen.Init()())
	if f.screen.phase != phasePayment {
		t.Fatalf("expected payment phase, got %d", f.screen.phase)
	}
	if f.screen.state != nil {
		t.Error("expected tracker not to be engaged for a paid paper")
	}
	if f.screen.HandlesBack() {
		t.Error("expected Esc to go back from the payment screen")
	}
	view := f.screen.View(100, 30)
	if !strings.Contains(view, "Go Pro Pack") || !strings.Contains(view, "499 INR") {
		t.Errorf("expected product and price in view")
	}

	_, cmd := f.screen.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected checkout command")
	}
	if _, again := f.screen.Update(specialKey(tea.KeyEnter)); again != nil {
		t.Error("expected no second checkout while busy")
	}
	f.screen.Update(cmd())

	if redirect != "https://example.com/back" {
		t.Errorf("expected redirect URL to be passed, got %q", redirect)
	}
	if !strings.Contains(f.screen.View(100, 30), "ps_123") {
		t.Error("expected payment session id in view")
	}

	// After paying, R reloads the paper.
	f.api.FetchPaperFn = func(id int) (*paper.QuestionPaper, error) { return backendtest.Paper(id), nil }
	_, cmd = f.screen.Update(keyPress('r'))
	if f.screen.phase != phaseLoading {
		t.Errorf("expected loading phase, got %d", f.screen.phase)
	}
	f.screen.Update(cmd())
	if f.screen.phase != phaseQuestions {
		t.Errorf("expected question phase after reload, got %d", f.screen.phase)
	}
}

func TestCheckoutFailureShownInline(t *testing.T) {
	f := newFixture(t)
	f.api.FetchPaperFn = func(int) (*paper.QuestionPaper, error) {
		return nil, &backend.PaymentRequiredError{ProductID: 4, ProductName: "Pack"}
	}
	f.api.CreatePaymentSessionFn = func(int, string) (*backend.PaymentSession, error) {
		return nil, errors.New("gateway down")
	}
	f.screen.Update(f.screen.Init()())

	_, cmd := f.screen.Update(specialKey(tea.KeyEnter))
	f.screen.Update(cmd())

	if !strings.Contains(f.screen.View(100, 30), "gateway down") {
		t.Error("expected checkout error in view")
	}
}

func TestLoadFailureAndEmptyPaper(t *testing.T) {
	f := newFixture(t)
	f.api.FetchPaperFn = func(int) (*paper.QuestionPaper, error) { return nil, backend.ErrUnauthorized }
	f.screen.Update(f.screen.Init()())

	if f.screen.phase != phaseLoadFailed {
		t.Fatalf("expected load failure, got %d", f.screen.phase)
	}
	if !strings.Contains(f.screen.View(100, 30), "unauthorized") {
		t.Error("expected error text in view")
	}

	f.api.FetchPaperFn = func(id int) (*paper.QuestionPaper, error) {
		return &paper.QuestionPaper{ID: id}, nil
	}
	_, cmd := f.screen.Update(keyPress('r'))
	f.screen.Update(cmd())
	if f.screen.phase != phaseLoadFailed || f.screen.loadErr != errEmptyPaper.Error() {
		t.Errorf("expected empty paper error, got phase %d err %q", f.screen.phase, f.screen.loadErr)
	}
}

func TestLeaveConfirmation(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	f.screen.Update(specialKey(tea.KeyEscape))
	if !f.screen.confirmLeave {
		t.Fatal("expected leave confirmation")
	}
	f.screen.Update(keyPress('n'))
	if f.screen.confirmLeave {
		t.Fatal("expected confirmation to close")
	}

	f.screen.Update(specialKey(tea.KeyEscape))
	_, cmd := f.screen.Update(keyPress('y'))
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}

func TestDisposeCancelsPendingVisit(t *testing.T) {
	f := newFixture(t)
	f.load(t)

	ticket, _ := f.screen.state.Tracker.Pending()
	f.screen.Dispose()
	f.screen.Update(visitDueMsg{Ticket: ticket})

	if visits := f.screen.state.Tracker.Bucket(11).Visits; len(visits) != 0 {
		t.Errorf("expected no visit after dispose, got %v", visits)
	}
}
