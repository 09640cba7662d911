package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Every event table starts with the same base columns: an auto-increment id,
// the global sequence number and the UTC wall-clock time of the event.
func eventColumns(extra ...*schema.Column) []*schema.Column {
	base := []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
	}
	return append(base, extra...)
}

func eventTable(name string, columns []*schema.Column, indexed ...string) *schema.Table {
	t := &schema.Table{
		Name:       name,
		Columns:    columns,
		PrimaryKey: []*schema.Column{columns[0]},
	}
	byName := make(map[string]*schema.Column, len(columns))
	for _, c := range columns {
		byName[c.Name] = c
	}
	for _, col := range append([]string{"sequence", "timestamp"}, indexed...) {
		t.Indexes = append(t.Indexes, &schema.Index{
			Name:    name + "_" + col,
			Columns: []*schema.Column{byName[col]},
		})
	}
	return t
}

var (
	// RequestEventsColumns holds the columns for the "request_events" table.
	RequestEventsColumns = eventColumns(
		&schema.Column{Name: "method", Type: field.TypeString},
		&schema.Column{Name: "endpoint", Type: field.TypeString},
		&schema.Column{Name: "status_code", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "attempt", Type: field.TypeInt, Default: 1},
		&schema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		&schema.Column{Name: "success", Type: field.TypeBool},
		&schema.Column{Name: "error_message", Type: field.TypeString, Default: ""},
	)
	// RequestEventsTable records every backend REST call.
	RequestEventsTable = eventTable("request_events", RequestEventsColumns, "endpoint", "success")

	// SubmissionEventsColumns holds the columns for the "submission_events" table.
	SubmissionEventsColumns = eventColumns(
		&schema.Column{Name: "attempt_id", Type: field.TypeString, Unique: true},
		&schema.Column{Name: "session_id", Type: field.TypeString},
		&schema.Column{Name: "paper_id", Type: field.TypeInt},
		&schema.Column{Name: "paper_title", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "total_questions", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "answered", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "duration_secs", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "success", Type: field.TypeBool},
		&schema.Column{Name: "response_id", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "error_message", Type: field.TypeString, Default: ""},
		&schema.Column{Name: "payload", Type: field.TypeJSON},
	)
	// SubmissionEventsTable records every submission attempt with its payload.
	SubmissionEventsTable = eventTable("submission_events", SubmissionEventsColumns, "session_id", "paper_id")

	// LLMRequestEventsColumns holds the columns for the "llm_request_events" table.
	LLMRequestEventsColumns = eventColumns(
		&schema.Column{Name: "provider", Type: field.TypeString},
		&schema.Column{Name: "model", Type: field.TypeString},
		&schema.Column{Name: "purpose", Type: field.TypeString},
		&schema.Column{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		&schema.Column{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		&schema.Column{Name: "success", Type: field.TypeBool},
		&schema.Column{Name: "error_message", Type: field.TypeString, Default: ""},
	)
	// LLMRequestEventsTable records every LLM API call.
	LLMRequestEventsTable = eventTable("llm_request_events", LLMRequestEventsColumns, "provider", "purpose", "success")

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		RequestEventsTable,
		SubmissionEventsTable,
		LLMRequestEventsTable,
	}
)
