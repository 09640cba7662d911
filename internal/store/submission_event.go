package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var submissionColumns = []string{
	"id", "sequence", "timestamp", "attempt_id", "session_id", "paper_id", "paper_title",
	"total_questions", "answered", "duration_secs", "success", "response_id", "error_message", "payload",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (SubmissionEvent, error) {
	var e SubmissionEvent
	var payload []byte
	err := row.Scan(
		&e.ID, &e.Sequence, &e.Timestamp, &e.AttemptID, &e.SessionID, &e.PaperID, &e.PaperTitle,
		&e.TotalQuestions, &e.Answered, &e.DurationSecs, &e.Success, &e.ResponseID, &e.ErrorMessage, &payload,
	)
	e.Payload = payload
	return e, err
}

func (r *eventRepo) AppendSubmission(ctx context.Context, data SubmissionEventData) error {
	payload := string(data.Payload)
	if payload == "" {
		payload = "null"
	}
	err := r.insert(ctx, SubmissionEventsTable.Name,
		[]string{
			"attempt_id", "session_id", "paper_id", "paper_title", "total_questions",
			"answered", "duration_secs", "success", "response_id", "error_message", "payload",
		},
		[]any{
			data.AttemptID, data.SessionID, data.PaperID, data.PaperTitle, data.TotalQuestions,
			data.Answered, data.DurationSecs, data.Success, data.ResponseID, data.ErrorMessage, payload,
		},
	)
	if err != nil {
		return fmt.Errorf("save submission event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySubmissions(ctx context.Context, opts QueryOpts) ([]SubmissionEvent, error) {
	sel := builder.Select(submissionColumns...).From(builder.Table(SubmissionEventsTable.Name))

	query, args := applyOpts(sel, opts).Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var events []SubmissionEvent
	for rows.Next() {
		e, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepo) GetSubmission(ctx context.Context, id int) (*SubmissionEvent, error) {
	query, args := builder.Select(submissionColumns...).
		From(builder.Table(SubmissionEventsTable.Name)).
		Where(entsql.EQ("id", id)).
		Query()

	e, err := scanSubmission(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return &e, nil
}
