package session

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diagz/internal/paper"
)

type fakeClock struct {
	ms int64
}

func (c *fakeClock) Now() time.Time { return time.UnixMilli(c.ms) }

func (c *fakeClock) Set(ms int64) { c.ms = ms }

func (c *fakeClock) Advance(d time.Duration) { c.ms += d.Milliseconds() }

func testPaper(n int) *paper.QuestionPaper {
	p := &paper.QuestionPaper{ID: 42, Title: "Fractions"}
	for i := 1; i <= n; i++ {
		p.Questions = append(p.Questions, paper.Question{
			ID:          i * 10,
			Description: "q",
			Type:        paper.TypeText,
		})
	}
	return p
}

func TestTracker_DebouncedNavigation(t *testing.T) {
	clk := &fakeClock{ms: 1000}
	tr := NewTracker(clk.Now)

	t1, ok := tr.RecordTransition(1, 2)
	require.True(t, ok)
	clk.Advance(50 * time.Millisecond)
	t2, ok := tr.RecordTransition(2, 3)
	require.True(t, ok)

	// The first ticket was superseded before it fired.
	clk.Advance(VisitDelay)
	assert.False(t, tr.FireVisit(t1))
	assert.True(t, tr.FireVisit(t2))
	// A ticket fires at most once.
	assert.False(t, tr.FireVisit(t2))

	assert.Equal(t, []int64{1000}, tr.Bucket(1).Exits)
	assert.Equal(t, []int64{1050}, tr.Bucket(2).Exits)
	assert.Empty(t, tr.Bucket(1).Visits)
	assert.Empty(t, tr.Bucket(2).Visits)
	assert.Equal(t, []int64{1250}, tr.Bucket(3).Visits)

	total := 0
	for _, b := range tr.Buckets() {
		total += len(b.Visits)
	}
	assert.Equal(t, 1, total)
}

func TestTracker_TransitionToSameQuestionIsNoop(t *testing.T) {
	tr := NewTracker((&fakeClock{ms: 5}).Now)
	_, ok := tr.RecordTransition(7, 7)
	assert.False(t, ok)
	assert.Empty(t, tr.Buckets())
	_, pending := tr.Pending()
	assert.False(t, pending)
}

func TestTracker_InitialVisitOnlyOnce(t *testing.T) {
	clk := &fakeClock{ms: 0}
	tr := NewTracker(clk.Now)

	ticket, ok := tr.RecordInitialVisit(1)
	require.True(t, ok)
	_, ok = tr.RecordInitialVisit(1)
	assert.False(t, ok)

	clk.Advance(VisitDelay)
	require.True(t, tr.FireVisit(ticket))
	assert.Equal(t, []int64{200}, tr.Bucket(1).Visits)
}

func TestTracker_CancelLeavesNoTrace(t *testing.T) {
	clk := &fakeClock{ms: 0}
	tr := NewTracker(clk.Now)

	ticket, _ := tr.RecordInitialVisit(1)
	tr.Cancel()
	clk.Advance(VisitDelay)

	assert.False(t, tr.FireVisit(ticket))
	assert.Empty(t, tr.Buckets())
}

func TestTracker_AnswerOverwrite(t *testing.T) {
	clk := &fakeClock{ms: 100}
	tr := NewTracker(clk.Now)

	for _, a := range []string{"A", "B", "C"} {
		tr.RecordAnswer(5, a)
		clk.Advance(10 * time.Millisecond)
	}

	assert.Equal(t, []int64{100, 110, 120}, tr.Bucket(5).Answers)
	got, ok := tr.Answer(5)
	require.True(t, ok)
	assert.Equal(t, "C", got)

	p := &paper.QuestionPaper{ID: 1, Questions: []paper.Question{{ID: 5}}}
	sub := BuildPayload(p, tr.Answers(), tr.Buckets())
	require.Len(t, sub.Answers, 1)
	assert.Equal(t, "C", sub.Answers[0].Answer)
	assert.Len(t, sub.Answers[0].AnswerTimestamps, 3)
}

func TestTracker_ClockNeverGoesBackwards(t *testing.T) {
	clk := &fakeClock{ms: 5000}
	tr := NewTracker(clk.Now)

	tr.RecordAnswer(1, "x")
	clk.Set(4000)
	tr.RecordAnswer(1, "y")

	assert.Equal(t, []int64{5000, 5000}, tr.Bucket(1).Answers)
}

func TestTracker_FinalizeBackfillsDanglingVisits(t *testing.T) {
	clk := &fakeClock{ms: 0}
	tr := NewTracker(clk.Now)

	// Visit 1 and 2 through transitions, then exit only once from 1.
	ticket, _ := tr.RecordInitialVisit(1)
	clk.Set(200)
	tr.FireVisit(ticket)
	clk.Set(500)
	ticket, _ = tr.RecordTransition(1, 2)
	clk.Set(700)
	tr.FireVisit(ticket)

	// Question 3 has extra exits and no visits; it stays untouched.
	clk.Set(800)
	tr.RecordTransition(3, 4)

	clk.Set(900)
	tr.FinalizeForSubmission(4, []int{1, 2, 3, 4})

	assert.Equal(t, []int64{500}, tr.Bucket(1).Exits, "already exited")
	assert.Equal(t, []int64{900}, tr.Bucket(2).Exits, "back-filled")
	assert.Equal(t, []int64{800}, tr.Bucket(3).Exits)
	assert.Equal(t, []int64{900}, tr.Bucket(4).Exits, "submission exit")
	assert.Empty(t, tr.Bucket(4).Visits)

	// The pending visit for 4 survives finalization.
	pending, ok := tr.Pending()
	require.True(t, ok)
	assert.Equal(t, 4, pending.QuestionID)
}

// Every question with a visit has an exit after finalization, whatever the
// navigation history.
func TestTracker_FinalizeGivesEveryVisitAnExit(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 200; run++ {
		n := 1 + rng.Intn(8)
		p := testPaper(n)
		clk := &fakeClock{ms: 1_000}
		s := NewSessionState(p, "s", clk.Now)

		ticket, ok := s.Start()
		steps := rng.Intn(30)
		for i := 0; i < steps; i++ {
			clk.Advance(time.Duration(rng.Intn(400)) * time.Millisecond)
			if ok && rng.Intn(2) == 0 {
				s.Tracker.FireVisit(ticket)
			}
			switch rng.Intn(4) {
			case 0:
				ticket, ok = s.Next()
			case 1:
				ticket, ok = s.Prev()
			case 2:
				ticket, ok = s.Jump(rng.Intn(n))
			case 3:
				s.RecordAnswer("a")
			}
		}

		clk.Advance(time.Second)
		sub := s.PrepareSubmission()
		require.Len(t, sub.Answers, n)
		for _, a := range sub.Answers {
			if len(a.QuestionVisitTimestamps) > 0 {
				assert.NotEmpty(t, a.QuestionExitTimestamps, "run %d question %d", run, a.QuestionID)
			}
			assert.IsNonDecreasing(t, a.QuestionVisitTimestamps)
			assert.IsNonDecreasing(t, a.QuestionExitTimestamps)
			assert.IsNonDecreasing(t, a.AnswerTimestamps)
		}
	}
}

func TestBuildPayload_Deterministic(t *testing.T) {
	clk := &fakeClock{ms: 0}
	s := NewSessionState(testPaper(3), "s", clk.Now)
	ticket, _ := s.Start()
	clk.Set(300)
	s.Tracker.FireVisit(ticket)
	s.RecordAnswer("x")
	clk.Set(900)
	s.Next()

	answers, buckets := s.Tracker.Answers(), s.Tracker.Buckets()
	a, err := json.Marshal(BuildPayload(s.Paper, answers, buckets))
	require.NoError(t, err)
	clk.Set(99_999)
	b, err := json.Marshal(BuildPayload(s.Paper, answers, buckets))
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
}

func TestBuildPayload_CopiesTimestamps(t *testing.T) {
	clk := &fakeClock{ms: 10}
	tr := NewTracker(clk.Now)
	tr.RecordAnswer(10, "first")

	p := testPaper(1)
	sub := BuildPayload(p, tr.Answers(), tr.Buckets())
	tr.RecordAnswer(10, "second")

	assert.Equal(t, []int64{10}, sub.Answers[0].AnswerTimestamps)
	assert.Equal(t, "first", sub.Answers[0].Answer)
}

func TestBuildPayload_WireShape(t *testing.T) {
	sub := BuildPayload(testPaper(1), nil, nil)

	b, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"QuestionPaperID": 42,
		"Answers": [{
			"QuestionID": 10,
			"Answer": "",
			"QuestionVisitTimestamps": [],
			"QuestionExitTimestamps": [],
			"AnswerTimestamps": []
		}]
	}`, string(b))
}

func TestBuildPayload_NilPaper(t *testing.T) {
	b, err := json.Marshal(BuildPayload(nil, nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"QuestionPaperID": 0, "Answers": []}`, string(b))
}
