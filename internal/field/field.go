// Package field holds the editable form-field domain: field definitions,
// conditional display rules, nesting/numbering, and the pre-write lifecycle
// checks applied by the CMS editing surface.
package field

import (
	"time"

	"github.com/google/uuid"
)

// Role classifies how a field participates in form layout. It is resolved
// once when a field is loaded, never re-derived from type names.
type Role string

const (
	// RoleOrdinary is a regular input field.
	RoleOrdinary Role = "ordinary"
	// RolePageBreak starts a new page of the form.
	RolePageBreak Role = "page_break"
	// RoleGroupStart opens a nested field group.
	RoleGroupStart Role = "group_start"
	// RoleGroupEnd closes the innermost open group.
	RoleGroupEnd Role = "group_end"
)

// Conjunction combines multiple display rules on one field.
type Conjunction string

const (
	ConjunctionAnd Conjunction = "and"
	ConjunctionOr  Conjunction = "or"
)

// Operator is the comparison applied by a display rule against the watched
// field's current value.
type Operator string

const (
	OpIsBlank            Operator = "is_blank"
	OpIsNotBlank         Operator = "is_not_blank"
	OpEquals             Operator = "equals"
	OpNotEquals          Operator = "not_equals"
	OpLessThan           Operator = "less_than"
	OpLessThanOrEqual    Operator = "less_than_or_equal"
	OpGreaterThan        Operator = "greater_than"
	OpGreaterThanOrEqual Operator = "greater_than_or_equal"
)

// ReservedName may never be used as a field Name: it collides with the
// front-end's generic field selector namespace.
const ReservedName = "Field"

// EditableField is one configurable input definition within a form.
// A zero FormID means the field has not been attached to a parent yet.
type EditableField struct {
	ID     uuid.UUID `json:"id"`
	FormID uuid.UUID `json:"form_id"`

	// Name is the stable machine identifier, unique across all fields.
	// Blank until the lifecycle manager generates one before first write.
	Name  string `json:"name"`
	Title string `json:"title"`
	Kind  string `json:"kind"` // concrete field type, e.g. "EditableTextField"
	Role  Role   `json:"role"`
	Sort  int    `json:"sort"`

	Required   bool `json:"required"`
	ShowOnLoad bool `json:"show_on_load"`

	DisplayRulesConjunction Conjunction `json:"display_rules_conjunction"`

	Default            string `json:"default,omitempty"`
	ExtraClass         string `json:"extra_class,omitempty"`
	RightTitle         string `json:"right_title,omitempty"`
	Placeholder        string `json:"placeholder,omitempty"`
	CustomErrorMessage string `json:"custom_error_message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Saved reports whether the field has been persisted at least once.
func (f *EditableField) Saved() bool {
	return f.ID != uuid.Nil
}

// HolderSelector returns the CSS selector of the field's wrapper element,
// the target a conditional-visibility runtime shows or hides.
func (f *EditableField) HolderSelector() string {
	return "#" + f.Name
}

// InputSelector returns the CSS selector matching the field's input
// element(s), used when this field is watched by another field's rules.
func (f *EditableField) InputSelector() string {
	return "[name='" + f.Name + "']"
}

// DisplayRule ties the owning field's visibility to the current value of
// another field. Rules are composed under the owner, never shared: deleting
// the owner deletes its rules.
type DisplayRule struct {
	ID               uuid.UUID `json:"id"`
	FieldID          uuid.UUID `json:"field_id"`
	ConditionFieldID uuid.UUID `json:"condition_field_id"`
	Operator         Operator  `json:"operator"`
	FieldValue       string    `json:"field_value"`
}

// Form is the parent container fields belong to. The CMS page that embeds
// the form is out of scope; only ownership and permissions live here.
type Form struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
