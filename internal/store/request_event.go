package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendRequest(ctx context.Context, data RequestEventData) error {
	attempt := data.Attempt
	if attempt < 1 {
		attempt = 1
	}
	err := r.insert(ctx, RequestEventsTable.Name,
		[]string{"method", "endpoint", "status_code", "attempt", "latency_ms", "success", "error_message"},
		[]any{data.Method, data.Endpoint, data.StatusCode, attempt, data.LatencyMs, data.Success, data.ErrorMessage},
	)
	if err != nil {
		return fmt.Errorf("save request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryRequestEvents(ctx context.Context, opts QueryOpts) ([]RequestEvent, error) {
	sel := builder.Select(
		"id", "sequence", "timestamp", "method", "endpoint",
		"status_code", "attempt", "latency_ms", "success", "error_message",
	).From(builder.Table(RequestEventsTable.Name))

	query, args := applyOpts(sel, opts).Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query request events: %w", err)
	}
	defer rows.Close()

	var events []RequestEvent
	for rows.Next() {
		var e RequestEvent
		if err := rows.Scan(
			&e.ID, &e.Sequence, &e.Timestamp, &e.Method, &e.Endpoint,
			&e.StatusCode, &e.Attempt, &e.LatencyMs, &e.Success, &e.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan request event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepo) RequestUsageByEndpoint(ctx context.Context) ([]EndpointUsage, error) {
	query, args := builder.Select(
		"endpoint",
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("success"), "succeeded"),
		entsql.As(entsql.Avg("latency_ms"), "avg_latency"),
	).
		From(builder.Table(RequestEventsTable.Name)).
		GroupBy("endpoint").
		OrderBy(entsql.Desc("calls"), "endpoint").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query endpoint usage: %w", err)
	}
	defer rows.Close()

	var usage []EndpointUsage
	for rows.Next() {
		var u EndpointUsage
		var succeeded int
		var avg sql.NullFloat64
		if err := rows.Scan(&u.Endpoint, &u.Calls, &succeeded, &avg); err != nil {
			return nil, fmt.Errorf("scan endpoint usage: %w", err)
		}
		u.Failures = u.Calls - succeeded
		u.AvgLatencyMs = int64(avg.Float64)
		usage = append(usage, u)
	}
	return usage, rows.Err()
}
