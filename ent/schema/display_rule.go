package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"github.com/google/uuid"
)

// DisplayRule ties one field's visibility to another field's value. Rules
// are owned by their field and cannot outlive it.
type DisplayRule struct {
	ent.Schema
}

func (DisplayRule) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New),
		field.UUID("condition_field_id", uuid.UUID{}).
			Comment("The watched field; may dangle after that field is deleted"),
		field.Enum("operator").
			Values("is_blank", "is_not_blank", "equals", "not_equals",
				"less_than", "less_than_or_equal",
				"greater_than", "greater_than_or_equal"),
		field.String("field_value").
			Optional().
			Comment("Literal the watched field's value is compared against"),
	}
}

func (DisplayRule) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("field", EditableField.Type).
			Ref("display_rules").
			Unique().
			Required(),
	}
}
