package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"github.com/google/uuid"
)

// EditableField is one configurable input definition within a form.
// The staged (draft/live) copies live in the record store; this schema
// describes the draft editing surface.
type EditableField struct {
	ent.Schema
}

func (EditableField) Mixin() []ent.Mixin {
	return []ent.Mixin{AuditMixin{}}
}

func (EditableField) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New),
		field.String("name").
			NotEmpty().
			Comment("Stable machine identifier, unique across all forms"),
		field.String("title"),
		field.String("kind").
			NotEmpty().
			Comment("Concrete field type, e.g. EditableTextField"),
		field.Enum("role").
			Values("ordinary", "page_break", "group_start", "group_end").
			Default("ordinary"),
		field.Int("sort").
			NonNegative(),
		field.Bool("required").
			Default(false).
			Comment("Required fields suppress their own display rules"),
		field.Bool("show_on_load").
			Default(true),
		field.Enum("display_rules_conjunction").
			Values("and", "or").
			Default("and"),
		field.String("default_value").
			Optional(),
		field.String("extra_class").
			Optional(),
		field.String("right_title").
			Optional(),
		field.String("placeholder").
			Optional(),
		field.String("custom_error_message").
			Optional(),
	}
}

func (EditableField) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("form", Form.Type).
			Ref("fields").
			Unique().
			Required(),
		edge.To("display_rules", DisplayRule.Type),
	}
}

func (EditableField) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("name").Unique(),
	}
}
