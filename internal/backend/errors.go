package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized indicates the backend rejected the bearer token (401).
// Tokens are not refreshed; the user has to supply a new one.
var ErrUnauthorized = errors.New("unauthorized: the ID token was rejected, set a fresh DIAGZ_ID_TOKEN")

// APIError is a non-2xx response other than 401 and 402.
type APIError struct {
	StatusCode int
	Endpoint   string

	// Message is the human-readable message from the response body, if any.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed with status %d", e.Endpoint, e.StatusCode)
}

// Retryable reports whether the status suggests a transient failure.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// PaymentRequiredError is returned when a paper must be purchased (402).
// It is a distinct flow state rather than a failure.
type PaymentRequiredError struct {
	Message     string  `json:"error"`
	ProductID   int     `json:"productId"`
	ProductName string  `json:"productName"`
	Cost        float64 `json:"cost"`
	Currency    string  `json:"currency"`
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("payment required for this test: %s (%s)", e.ProductName, e.Price())
}

// Price renders the cost with its currency, e.g. "499 INR".
func (e *PaymentRequiredError) Price() string {
	return strings.TrimSpace(formatCost(e.Cost) + " " + e.Currency)
}

func formatCost(c float64) string {
	if c == float64(int64(c)) {
		return fmt.Sprintf("%d", int64(c))
	}
	return fmt.Sprintf("%.2f", c)
}

// MalformedResponseError indicates a response body that does not match the
// expected shape. Such bodies are never coerced.
type MalformedResponseError struct {
	Endpoint   string
	StatusCode int
	Body       json.RawMessage
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Endpoint, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// NetworkError indicates the backend could not be reached.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: backend unreachable: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsPaymentRequired reports whether err carries a payment call-to-action.
func IsPaymentRequired(err error) (*PaymentRequiredError, bool) {
	var pr *PaymentRequiredError
	if errors.As(err, &pr) {
		return pr, true
	}
	return nil, false
}
