package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
)

// Form is the parent container for editable fields and submissions.
type Form struct {
	ent.Schema
}

func (Form) Mixin() []ent.Mixin {
	return []ent.Mixin{AuditMixin{}}
}

func (Form) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New),
		field.String("title").
			NotEmpty(),
	}
}

func (Form) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("fields", EditableField.Type),
		edge.To("submissions", Submission.Type),
	}
}
