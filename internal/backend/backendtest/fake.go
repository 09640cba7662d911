package backendtest

import (
	"context"
	"errors"
	"sync"

	"github.com/abhisek/diagz/internal/backend"
	"github.com/abhisek/diagz/internal/paper"
	"github.com/abhisek/diagz/internal/session"
)

// errNotStubbed is returned by FakeAPI methods without a stub.
var errNotStubbed = errors.New("backendtest: method not stubbed")

// FakeAPI is an in-memory backend.API for screen and command tests. Unset
// function fields fail with an error. Submissions are recorded.
type FakeAPI struct {
	FetchPaperFn           func(id int) (*paper.QuestionPaper, error)
	ListPapersFn           func() ([]paper.QuestionPaper, error)
	MyResponsesFn          func() ([]backend.ResponseSummary, error)
	GetResponseFn          func(id int) (*backend.Response, error)
	SubmitFn               func(sub session.Submission) (int, error)
	CreatePaymentSessionFn func(productID int, redirectURL string) (*backend.PaymentSession, error)

	mu          sync.Mutex
	submissions []session.Submission
}

var _ backend.API = (*FakeAPI)(nil)

func (f *FakeAPI) FetchPaper(_ context.Context, id int) (*paper.QuestionPaper, error) {
	if f.FetchPaperFn == nil {
		return nil, errNotStubbed
	}
	return f.FetchPaperFn(id)
}

func (f *FakeAPI) ListPapers(_ context.Context) ([]paper.QuestionPaper, error) {
	if f.ListPapersFn == nil {
		return nil, errNotStubbed
	}
	return f.ListPapersFn()
}

func (f *FakeAPI) MyResponses(_ context.Context) ([]backend.ResponseSummary, error) {
	if f.MyResponsesFn == nil {
		return nil, errNotStubbed
	}
	return f.MyResponsesFn()
}

func (f *FakeAPI) GetResponse(_ context.Context, id int) (*backend.Response, error) {
	if f.GetResponseFn == nil {
		return nil, errNotStubbed
	}
	return f.GetResponseFn(id)
}

func (f *FakeAPI) Submit(_ context.Context, sub session.Submission) (int, error) {
	f.mu.Lock()
	f.submissions = append(f.submissions, sub)
	f.mu.Unlock()

	if f.SubmitFn == nil {
		return 0, errNotStubbed
	}
	return f.SubmitFn(sub)
}

func (f *FakeAPI) CreatePaymentSession(_ context.Context, productID int, redirectURL string) (*backend.PaymentSession, error) {
	if f.CreatePaymentSessionFn == nil {
		return nil, errNotStubbed
	}
	return f.CreatePaymentSessionFn(productID, redirectURL)
}

// Submissions returns every payload passed to Submit, oldest first.
func (f *FakeAPI) Submissions() []session.Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Submission(nil), f.submissions...)
}

// Paper builds a paper with one free-text and one multiple-choice question,
// ids 11 and 12.
func Paper(id int) *paper.QuestionPaper {
	return &paper.QuestionPaper{
		ID:    id,
		Title: "Go fundamentals",
		Questions: []paper.Question{
			{ID: 11, Description: "What does defer do?", Type: paper.TypeText},
			{
				ID:            12,
				Description:   "Zero value of a map?",
				Type:          paper.TypeMultipleChoice,
				AnswerChoices: paper.Choices{"nil", "empty map", "panic"},
			},
		},
	}
}
