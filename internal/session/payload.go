package session

import "github.com/abhisek/diagz/internal/paper"

// QuestionResponse is one question's entry in a submission.
type QuestionResponse struct {
	QuestionID              int     `json:"QuestionID"`
	Answer                  string  `json:"Answer"`
	QuestionVisitTimestamps []int64 `json:"QuestionVisitTimestamps"`
	QuestionExitTimestamps  []int64 `json:"QuestionExitTimestamps"`
	AnswerTimestamps        []int64 `json:"AnswerTimestamps"`
}

// Submission is the body posted to the responses endpoint.
type Submission struct {
	QuestionPaperID int                `json:"QuestionPaperID"`
	Answers         []QuestionResponse `json:"Answers"`
}

// Answered returns the number of entries with a non-empty answer.
func (s Submission) Answered() int {
	n := 0
	for _, a := range s.Answers {
		if a.Answer != "" {
			n++
		}
	}
	return n
}

// BuildPayload assembles a submission in paper order. It reads no clock and
// copies every timestamp slice, so equal inputs give equal output and later
// tracker mutations do not leak into a built payload.
func BuildPayload(p *paper.QuestionPaper, answers map[int]string, buckets map[int]EventBucket) Submission {
	sub := Submission{Answers: []QuestionResponse{}}
	if p == nil {
		return sub
	}
	sub.QuestionPaperID = p.ID
	sub.Answers = make([]QuestionResponse, 0, len(p.Questions))

	for _, q := range p.Questions {
		b := buckets[q.ID].Clone()
		sub.Answers = append(sub.Answers, QuestionResponse{
			QuestionID:              q.ID,
			Answer:                  answers[q.ID],
			QuestionVisitTimestamps: b.Visits,
			QuestionExitTimestamps:  b.Exits,
			AnswerTimestamps:        b.Answers,
		})
	}
	return sub
}
