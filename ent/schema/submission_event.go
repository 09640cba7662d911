package schema

import (
	"encoding/json"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SubmissionEvent records one submission attempt and the payload it sent.
type SubmissionEvent struct {
	ent.Schema
}

func (SubmissionEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (SubmissionEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("attempt_id").
			Unique().
			Comment("Fresh per press of submit"),
		field.String("session_id").
			Comment("Shared by every attempt of one test session"),
		field.Int("paper_id"),
		field.String("paper_title").
			Default(""),
		field.Int("total_questions").
			Default(0),
		field.Int("answered").
			Default(0),
		field.Int("duration_secs").
			Default(0),
		field.Bool("success"),
		field.Int("response_id").
			Default(0).
			Comment("Persisted response id when the backend accepted it"),
		field.String("error_message").
			Default(""),
		field.JSON("payload", json.RawMessage{}),
	}
}

func (SubmissionEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("session_id"),
		index.Fields("paper_id"),
	}
}
