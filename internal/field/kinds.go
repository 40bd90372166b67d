package field

import "fmt"

// KindBehavior describes how a concrete field type behaves when it is
// watched by display rules.
type KindBehavior struct {
	// Role the kind plays in form layout.
	Role Role
	// Event is the DOM event the front-end runtime listens on to
	// re-evaluate rules watching this kind.
	Event string
}

// kinds is the closed registry of concrete field types. Populated at init;
// not mutated afterwards, so reads need no locking.
var kinds = map[string]KindBehavior{
	"EditableTextField":     {Role: RoleOrdinary, Event: "keyup"},
	"EditableEmailField":    {Role: RoleOrdinary, Event: "keyup"},
	"EditableNumericField":  {Role: RoleOrdinary, Event: "keyup"},
	"EditableTextareaField": {Role: RoleOrdinary, Event: "keyup"},
	"EditableDateField":     {Role: RoleOrdinary, Event: "change"},
	"EditableDropdown":      {Role: RoleOrdinary, Event: "change"},
	"EditableCheckbox":      {Role: RoleOrdinary, Event: "click"},
	"EditableRadioField":    {Role: RoleOrdinary, Event: "click"},
	"EditableFormStep":      {Role: RolePageBreak, Event: "change"},
	"EditableFieldGroup":    {Role: RoleGroupStart, Event: "change"},
	"EditableFieldGroupEnd": {Role: RoleGroupEnd, Event: "change"},
}

// RegisterKind adds a concrete field type to the registry. It panics on a
// duplicate registration: two packages claiming the same kind is a
// misconfiguration that must surface during development, not at render time.
func RegisterKind(kind string, b KindBehavior) {
	if _, exists := kinds[kind]; exists {
		panic(fmt.Sprintf("field: kind %q registered twice", kind))
	}
	kinds[kind] = b
}

// KnownKind reports whether kind has a registered behavior. The lifecycle
// manager rejects writes of unknown kinds so that later lookups can treat
// absence as a programmer error.
func KnownKind(kind string) bool {
	_, ok := kinds[kind]
	return ok
}

// MustKindBehavior returns the behavior for kind and panics when the kind
// was never registered. Callers only reach this with persisted fields, and
// persistence validates the kind, so a miss means a subclass wired into the
// registry incorrectly.
func MustKindBehavior(kind string) KindBehavior {
	b, ok := kinds[kind]
	if !ok {
		panic(fmt.Sprintf("field: no behavior registered for kind %q", kind))
	}
	return b
}

// RoleForKind resolves the layout role of a kind, defaulting to ordinary
// for unknown kinds so numbering stays usable on partially migrated data.
func RoleForKind(kind string) Role {
	if b, ok := kinds[kind]; ok {
		return b.Role
	}
	return RoleOrdinary
}
