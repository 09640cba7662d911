package session

// EventBucket holds the event timestamps recorded for one question.
// All values are milliseconds since the Unix epoch. The slices are
// append-only for the lifetime of a session.
type EventBucket struct {
	Visits  []int64
	Exits   []int64
	Answers []int64
}

func newBucket() *EventBucket {
	return &EventBucket{
		Visits:  []int64{},
		Exits:   []int64{},
		Answers: []int64{},
	}
}

// Visited reports whether at least one visit was recorded.
func (b EventBucket) Visited() bool {
	return len(b.Visits) > 0
}

// Dangling reports whether the question was visited but never exited.
func (b EventBucket) Dangling() bool {
	return len(b.Visits) > 0 && len(b.Exits) == 0
}

// Clone returns a deep copy whose slices are never nil.
func (b EventBucket) Clone() EventBucket {
	return EventBucket{
		Visits:  cloneStamps(b.Visits),
		Exits:   cloneStamps(b.Exits),
		Answers: cloneStamps(b.Answers),
	}
}

func cloneStamps(s []int64) []int64 {
	return append(make([]int64, 0, len(s)), s...)
}
