package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// RequestEventData captures a single backend REST call.
type RequestEventData struct {
	Method       string
	Endpoint     string
	StatusCode   int
	Attempt      int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// RequestEvent is a stored RequestEventData.
type RequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	RequestEventData
}

// EndpointUsage aggregates request events by endpoint.
type EndpointUsage struct {
	Endpoint     string
	Calls        int
	Failures     int
	AvgLatencyMs int64
}

// SubmissionEventData captures one submission attempt.
type SubmissionEventData struct {
	AttemptID      string
	SessionID      string
	PaperID        int
	PaperTitle     string
	TotalQuestions int
	Answered       int
	DurationSecs   int
	Success        bool
	ResponseID     int
	ErrorMessage   string

	// Payload is the JSON body that was sent.
	Payload []byte
}

// SubmissionEvent is a stored SubmissionEventData.
type SubmissionEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	SubmissionEventData
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMRequestEvent is a stored LLMRequestEventData.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates LLM request events by purpose.
type LLMUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to local events.
type EventRepo interface {
	// AppendRequest records a backend REST call.
	AppendRequest(ctx context.Context, data RequestEventData) error

	// AppendSubmission records a submission attempt.
	AppendSubmission(ctx context.Context, data SubmissionEventData) error

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryRequestEvents returns request events, newest first.
	QueryRequestEvents(ctx context.Context, opts QueryOpts) ([]RequestEvent, error)

	// RequestUsageByEndpoint aggregates request events per endpoint.
	RequestUsageByEndpoint(ctx context.Context) ([]EndpointUsage, error)

	// QuerySubmissions returns submission attempts, newest first.
	QuerySubmissions(ctx context.Context, opts QueryOpts) ([]SubmissionEvent, error)

	// GetSubmission returns one submission attempt by id, or nil if missing.
	GetSubmission(ctx context.Context, id int) (*SubmissionEvent, error)

	// QueryLLMEvents returns LLM request events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// LLMUsageByPurpose aggregates token usage per purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
}
