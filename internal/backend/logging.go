package backend

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/abhisek/diagz/internal/store"
)

type contextKey string

const (
	endpointKey contextKey = "backend_endpoint"
	attemptKey  contextKey = "backend_attempt"
)

// withEndpoint labels a request with its route template for event logging.
func withEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, endpointKey, endpoint)
}

func withAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}

// EndpointFrom extracts the route label from the context.
func EndpointFrom(ctx context.Context) string {
	if v, ok := ctx.Value(endpointKey).(string); ok {
		return v
	}
	return ""
}

// AttemptFrom extracts the attempt number from the context.
func AttemptFrom(ctx context.Context) int {
	if v, ok := ctx.Value(attemptKey).(int); ok {
		return v
	}
	return 1
}

// LoggingTransport is a decorator that records every HTTP round trip to the
// backend as a request event.
type LoggingTransport struct {
	inner     http.RoundTripper
	eventRepo store.EventRepo
}

// WithLogging wraps a RoundTripper with event logging. A nil inner
// transport means http.DefaultTransport.
func WithLogging(rt http.RoundTripper, repo store.EventRepo) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &LoggingTransport{inner: rt, eventRepo: repo}
}

func (l *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()

	resp, err := l.inner.RoundTrip(req)

	endpoint := EndpointFrom(ctx)
	if endpoint == "" {
		endpoint = req.Method + " " + req.URL.Path
	}

	data := store.RequestEventData{
		Method:    req.Method,
		Endpoint:  endpoint,
		Attempt:   AttemptFrom(ctx),
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if resp != nil {
		data.StatusCode = resp.StatusCode
		data.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
		if !data.Success {
			data.ErrorMessage = resp.Status
		}
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// Log the event but don't fail the request if logging fails.
	// The request context may already be cancelled, so log detached.
	if logErr := l.eventRepo.AppendRequest(context.WithoutCancel(ctx), data); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log request event: %v\n", logErr)
	}

	return resp, err
}
