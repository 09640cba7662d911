package session

import "time"

// SessionSummary holds the attempt statistics logged with each submission.
type SessionSummary struct {
	SessionID  string
	PaperID    int
	Duration   time.Duration
	Total      int
	Answered   int
	Visited    int
	AnswerEdit int
	Attempts   int
}

// BuildSummary creates a SessionSummary from the current session state.
func BuildSummary(state *SessionState, now time.Time) *SessionSummary {
	sum := &SessionSummary{
		SessionID: state.SessionID,
		Duration:  now.Sub(state.StartTime),
		Total:     state.Len(),
		Answered:  state.AnsweredCount(),
		Attempts:  state.Attempts,
	}
	if state.Paper != nil {
		sum.PaperID = state.Paper.ID
	}

	buckets := state.Tracker.Buckets()
	for i := 0; i < state.Len(); i++ {
		b, ok := buckets[state.Paper.Questions[i].ID]
		if !ok {
			continue
		}
		if b.Visited() {
			sum.Visited++
		}
		sum.AnswerEdit += len(b.Answers)
	}
	return sum
}
