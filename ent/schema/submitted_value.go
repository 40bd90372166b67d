package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
)

// SubmittedValue is an immutable snapshot of one field's value within one
// submission. It carries its own Name and Title: the originating field may
// be edited or deleted without touching submissions.
type SubmittedValue struct {
	ent.Schema
}

func (SubmittedValue) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New),
		field.String("name").
			Immutable(),
		field.String("title").
			Immutable(),
		field.Text("value").
			Immutable(),
	}
}

func (SubmittedValue) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("submission", Submission.Type).
			Ref("values").
			Unique().
			Required(),
	}
}
