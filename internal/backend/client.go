package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/abhisek/diagz/internal/config"
	"github.com/abhisek/diagz/internal/paper"
	"github.com/abhisek/diagz/internal/session"
	"github.com/abhisek/diagz/internal/store"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 10 << 20

// Client talks to the platform backend over REST.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	retry   RetryConfig
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetryConfig replaces the read retry policy.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// New creates a client for baseURL authenticating with token.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{},
		retry:   DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewFromConfig validates cfg and builds a client whose requests are
// logged to repo. A nil repo disables logging.
func NewFromConfig(cfg config.Config, repo store.EventRepo, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var transport http.RoundTripper = http.DefaultTransport
	if repo != nil {
		transport = WithLogging(transport, repo)
	}
	base := []Option{WithHTTPClient(&http.Client{Timeout: cfg.Timeout, Transport: transport})}
	return New(cfg.BackendURL, cfg.IDToken, append(base, opts...)...), nil
}

var _ API = (*Client)(nil)

// do performs one HTTP exchange and returns the status and body.
func (c *Client) do(ctx context.Context, method, path, endpoint string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(withEndpoint(ctx, endpoint), method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		return 0, nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return resp.StatusCode, nil, &NetworkError{Endpoint: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	return resp.StatusCode, raw, nil
}

// check maps non-2xx statuses to typed errors.
func check(endpoint string, status int, raw []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusPaymentRequired:
		var pr PaymentRequiredError
		if err := decodeValidated(endpoint, status, raw, "payment-required", &pr); err != nil {
			return err
		}
		return &pr
	default:
		return &APIError{StatusCode: status, Endpoint: endpoint, Message: errorMessage(raw)}
	}
}

// get performs a retried GET and decodes the validated body into out.
func (c *Client) get(ctx context.Context, path, endpoint, schema string, out any) error {
	return c.retry.retry(ctx, func(ctx context.Context) error {
		status, raw, err := c.do(ctx, http.MethodGet, path, endpoint, nil)
		if err != nil {
			return err
		}
		if err := check(endpoint, status, raw); err != nil {
			return err
		}
		return decodeValidated(endpoint, status, raw, schema, out)
	})
}

// post performs a single POST. Writes are never retried automatically.
func (c *Client) post(ctx context.Context, path, endpoint, schema string, body, out any) error {
	status, raw, err := c.do(ctx, http.MethodPost, path, endpoint, body)
	if err != nil {
		return err
	}
	if err := check(endpoint, status, raw); err != nil {
		return err
	}
	return decodeValidated(endpoint, status, raw, schema, out)
}

func (c *Client) FetchPaper(ctx context.Context, id int) (*paper.QuestionPaper, error) {
	var p paper.QuestionPaper
	err := c.get(ctx, fmt.Sprintf("/v1/api/papers/%d", id), "GET /v1/api/papers/{id}", "paper", &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListPapers(ctx context.Context) ([]paper.QuestionPaper, error) {
	var papers []paper.QuestionPaper
	if err := c.get(ctx, "/v1/api/papers", "GET /v1/api/papers", "paper-list", &papers); err != nil {
		return nil, err
	}
	return papers, nil
}

func (c *Client) MyResponses(ctx context.Context) ([]ResponseSummary, error) {
	var out []ResponseSummary
	if err := c.get(ctx, "/v1/api/responses/me", "GET /v1/api/responses/me", "response-list", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetResponse(ctx context.Context, id int) (*Response, error) {
	var r Response
	err := c.get(ctx, fmt.Sprintf("/v1/api/responses/%d", id), "GET /v1/api/responses/{id}", "response", &r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) Submit(ctx context.Context, sub session.Submission) (int, error) {
	var res submitResult
	if err := c.post(ctx, "/v1/api/responses", "POST /v1/api/responses", "submit-result", sub, &res); err != nil {
		return 0, err
	}
	return res.ID, nil
}

func (c *Client) CreatePaymentSession(ctx context.Context, productID int, redirectURL string) (*PaymentSession, error) {
	var ps PaymentSession
	err := c.post(ctx,
		fmt.Sprintf("/v1/api/payment/session/product/%d", productID),
		"POST /v1/api/payment/session/product/{id}",
		"payment-session",
		paymentSessionRequest{RedirectURL: redirectURL},
		&ps,
	)
	if err != nil {
		return nil, err
	}
	return &ps, nil
}
