package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/diagz/internal/paper"
	"github.com/abhisek/diagz/internal/session"
)

// API is the subset of the platform backend the client uses.
type API interface {
	// FetchPaper loads a question paper. A *PaymentRequiredError means the
	// paper has to be bought first.
	FetchPaper(ctx context.Context, id int) (*paper.QuestionPaper, error)

	// ListPapers returns the papers available to the user.
	ListPapers(ctx context.Context) ([]paper.QuestionPaper, error)

	// MyResponses returns the user's past attempts.
	MyResponses(ctx context.Context) ([]ResponseSummary, error)

	// GetResponse returns a scored attempt.
	GetResponse(ctx context.Context, id int) (*Response, error)

	// Submit posts a finished attempt and returns the persisted response id.
	Submit(ctx context.Context, sub session.Submission) (int, error)

	// CreatePaymentSession starts checkout for a product.
	CreatePaymentSession(ctx context.Context, productID int, redirectURL string) (*PaymentSession, error)
}

// ResponseSummary is one entry of the user's attempt list.
type ResponseSummary struct {
	ID              int                 `json:"ID"`
	CreatedAt       time.Time           `json:"CreatedAt"`
	QuestionPaperID int                 `json:"questionPaperId"`
	QuestionPaper   paper.QuestionPaper `json:"QuestionPaper"`
}

// AnswerResult is one scored answer of a response.
type AnswerResult struct {
	ID         int            `json:"ID"`
	QuestionID int            `json:"questionId"`
	Question   paper.Question `json:"Question"`
	Answer     string         `json:"answer"`
}

// Correct reports whether the answer matches the canonical answer.
func (a AnswerResult) Correct() bool {
	return a.Answer != "" && a.Answer == a.Question.CorrectAnswer
}

// Response is a scored attempt with feedback.
type Response struct {
	ID                    int                 `json:"ID"`
	CreatedAt             time.Time           `json:"CreatedAt"`
	QuestionPaperID       int                 `json:"questionPaperId"`
	QuestionPaper         paper.QuestionPaper `json:"QuestionPaper"`
	Answers               []AnswerResult      `json:"Answers"`
	TotalCorrectAnswers   int                 `json:"totalCorrectAnswers"`
	TotalIncorrectAnswers int                 `json:"totalIncorrectAnswers"`
	WeightedScore         float64             `json:"weightedScore"`

	// Scores keyed by topic or difficulty, e.g. {"arrays": "1/1"}.
	TopicWiseScore      []map[string]string `json:"topicWiseScore"`
	DifficultyWiseScore []map[string]string `json:"difficultyWiseScore"`

	PreparationAdvice string            `json:"preparationAdvice"`
	Resources         []json.RawMessage `json:"resources"`
}

// Total returns the number of scored answers.
func (r *Response) Total() int {
	return r.TotalCorrectAnswers + r.TotalIncorrectAnswers
}

// ScoreLine renders "correct/total (pct%)".
func (r *Response) ScoreLine() string {
	total := r.Total()
	if total == 0 {
		return "0/0"
	}
	pct := float64(r.TotalCorrectAnswers) / float64(total) * 100
	return fmt.Sprintf("%d/%d (%.0f%%)", r.TotalCorrectAnswers, total, pct)
}

// PaymentSession is the checkout handle returned by the payment endpoint.
type PaymentSession struct {
	PaymentSessionID string `json:"paymentSessionId"`
	OrderID          string `json:"order_id"`
}

type submitResult struct {
	ID int `json:"ID"`
}

type paymentSessionRequest struct {
	RedirectURL string `json:"redirectUrl"`
}
