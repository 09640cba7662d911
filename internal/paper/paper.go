package paper

import "time"

// QuestionType describes how a question is answered.
type QuestionType string

const (
	// TypeMultipleChoice means the learner picks one of AnswerChoices.
	TypeMultipleChoice QuestionType = "multiple_choice"

	// TypeText means the learner types a free-form answer.
	TypeText QuestionType = "text"
)

// Tag is a topic label attached to questions and materials.
type Tag struct {
	ID   int    `json:"ID"`
	Name string `json:"Name"`
}

// Material is a study resource linked to a question.
type Material struct {
	ID          int    `json:"ID"`
	URL         string `json:"URL"`
	Description string `json:"Description"`
	Tags        []Tag  `json:"Tags"`
}

// Question is a single item of a question paper as served by the backend.
type Question struct {
	ID int `json:"ID"`

	// Description is the prompt shown to the learner.
	Description string `json:"Description"`

	// CorrectAnswer is only populated on result views. The test-taking
	// flow never reads it.
	CorrectAnswer string `json:"CorrectAnswer"`

	// AnswerChoices is empty for free-text questions.
	AnswerChoices Choices `json:"AnswerChoices"`

	Hint        string       `json:"Hint"`
	Explanation string       `json:"Explanation"`
	Type        QuestionType `json:"Type"`
	Tags        []Tag        `json:"Tags,omitempty"`
	Materials   []Material   `json:"Materials,omitempty"`
}

// IsMultipleChoice reports whether the question should be rendered as a
// choice list. A multiple-choice question without usable choices falls back
// to free text.
func (q Question) IsMultipleChoice() bool {
	return q.Type == TypeMultipleChoice && len(q.AnswerChoices) > 0
}

// QuestionPaper is an ordered set of questions taken as one test.
type QuestionPaper struct {
	ID          int            `json:"ID"`
	Title       string         `json:"Title"`
	Description string         `json:"Description"`
	Metadata    map[string]any `json:"Metadata"`
	Questions   []Question     `json:"Questions"`
	CreatedAt   time.Time      `json:"CreatedAt"`
	UpdatedAt   time.Time      `json:"UpdatedAt"`
}

// QuestionIDs returns the question identifiers in paper order.
func (p *QuestionPaper) QuestionIDs() []int {
	ids := make([]int, len(p.Questions))
	for i, q := range p.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Len returns the number of questions on the paper.
func (p *QuestionPaper) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Questions)
}
