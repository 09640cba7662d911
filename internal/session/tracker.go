package session

import (
	"time"
)

// VisitDelay is how long a question must stay on screen before a visit is
// recorded for it.
const VisitDelay = 200 * time.Millisecond

// Clock returns the current time. Tests substitute a fake.
type Clock func() time.Time

// VisitTicket identifies a scheduled visit. The owner of the event loop
// delivers it back through FireVisit once VisitDelay has elapsed.
type VisitTicket struct {
	QuestionID int
	Gen        uint64
}

// Tracker records visit, exit and answer timestamps per question for one
// test session and keeps the latest answer text for each question.
//
// Tracker is not safe for concurrent use. It is owned by the test screen and
// only touched from the UI event loop.
type Tracker struct {
	now     Clock
	lastMs  int64
	buckets map[int]*EventBucket
	answers map[int]string

	// Single-slot pending visit. gen is bumped on every schedule and cancel,
	// so a ticket is current only while its Gen equals gen and hasPending.
	gen        uint64
	pending    VisitTicket
	hasPending bool

	initialScheduled bool
}

// NewTracker creates an empty tracker. A nil clock means time.Now.
func NewTracker(clock Clock) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{
		now:     clock,
		buckets: make(map[int]*EventBucket),
		answers: make(map[int]string),
	}
}

// stamp reads the clock, never going backwards within a session.
func (t *Tracker) stamp() int64 {
	ms := t.now().UnixMilli()
	if ms < t.lastMs {
		ms = t.lastMs
	}
	t.lastMs = ms
	return ms
}

func (t *Tracker) bucket(questionID int) *EventBucket {
	b, ok := t.buckets[questionID]
	if !ok {
		b = newBucket()
		t.buckets[questionID] = b
	}
	return b
}

func (t *Tracker) schedule(questionID int) VisitTicket {
	t.gen++
	t.pending = VisitTicket{QuestionID: questionID, Gen: t.gen}
	t.hasPending = true
	return t.pending
}

// RecordInitialVisit schedules the visit for the first question shown. It
// only has an effect once per tracker; later calls return false.
func (t *Tracker) RecordInitialVisit(questionID int) (VisitTicket, bool) {
	if t.initialScheduled {
		return VisitTicket{}, false
	}
	t.initialScheduled = true
	return t.schedule(questionID), true
}

// RecordTransition records leaving fromID immediately and schedules a
// visit for toID, superseding any visit still pending. Equal ids are a no-op.
func (t *Tracker) RecordTransition(fromID, toID int) (VisitTicket, bool) {
	if fromID == toID {
		return VisitTicket{}, false
	}
	b := t.bucket(fromID)
	b.Exits = append(b.Exits, t.stamp())
	return t.schedule(toID), true
}

// FireVisit appends a visit for the ticket's question if the ticket is still
// the pending one. Superseded or cancelled tickets leave no trace.
func (t *Tracker) FireVisit(ticket VisitTicket) bool {
	if !t.hasPending || ticket != t.pending {
		return false
	}
	t.hasPending = false
	b := t.bucket(ticket.QuestionID)
	b.Visits = append(b.Visits, t.stamp())
	return true
}

// Cancel drops the pending visit, if any.
func (t *Tracker) Cancel() {
	t.gen++
	t.hasPending = false
	t.pending = VisitTicket{}
}

// Pending returns the currently scheduled visit.
func (t *Tracker) Pending() (VisitTicket, bool) {
	return t.pending, t.hasPending
}

// RecordAnswer timestamps an answer edit and keeps text as the current answer.
func (t *Tracker) RecordAnswer(questionID int, text string) {
	b := t.bucket(questionID)
	b.Answers = append(b.Answers, t.stamp())
	t.answers[questionID] = text
}

// Answer returns the current answer for a question.
func (t *Tracker) Answer(questionID int) (string, bool) {
	a, ok := t.answers[questionID]
	return a, ok
}

// Answers returns a copy of the answer map.
func (t *Tracker) Answers() map[int]string {
	out := make(map[int]string, len(t.answers))
	for id, a := range t.answers {
		out[id] = a
	}
	return out
}

// Bucket returns a copy of the bucket for a question, creating it if needed.
func (t *Tracker) Bucket(questionID int) EventBucket {
	return t.bucket(questionID).Clone()
}

// Buckets returns deep copies of every bucket referenced so far.
func (t *Tracker) Buckets() map[int]EventBucket {
	out := make(map[int]EventBucket, len(t.buckets))
	for id, b := range t.buckets {
		out[id] = b.Clone()
	}
	return out
}

// FinalizeForSubmission closes the session's timeline at submit time.
// The current question always gets an exit. Every other question that was
// visited but never exited gets one exit at the same instant. A pending visit
// stays scheduled: if the submit fails the question on screen is still being
// looked at. Questions with more exits than visits are left as they are.
func (t *Tracker) FinalizeForSubmission(currentID int, allIDs []int) {
	ts := t.stamp()

	cur := t.bucket(currentID)
	cur.Exits = append(cur.Exits, ts)

	for _, id := range allIDs {
		if id == currentID {
			continue
		}
		b, ok := t.buckets[id]
		if !ok || !b.Dangling() {
			continue
		}
		b.Exits = append(b.Exits, ts)
	}
}
