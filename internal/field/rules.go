package field

import (
	"fmt"

	"github.com/google/uuid"
)

// RuleSet is the serializable descriptor a front-end conditional-visibility
// runtime consumes. One RuleSet per field with effective display rules.
type RuleSet struct {
	TargetSelector string      `json:"targetSelector"`
	Conjunction    string      `json:"conjunction"` // "&&" or "||"
	Selectors      []string    `json:"selectors"`
	Events         []string    `json:"events"`
	Operations     []Operation `json:"operations"`
	InitialState   string      `json:"initialState"` // "show" or "hide"
	ViewText       string      `json:"view"`
	OppositeText   string      `json:"opposite"`
}

// Operation is one compiled comparison against a watched field.
type Operation struct {
	Selector string   `json:"selector"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value,omitempty"`
}

// FieldLookup resolves a field by ID. A nil result with a nil error means
// the field no longer exists; the compiler tolerates that.
type FieldLookup func(id uuid.UUID) (*EditableField, error)

// CompileDisplayRules turns a field's configured rules into a RuleSet.
//
// Returns nil when the field has no effective rules: a Required field's
// effective rule set is defined as empty (a required field is never
// conditionally hidden), and rules whose watched field has been deleted are
// skipped silently. Lookup failures other than absence propagate.
func CompileDisplayRules(f *EditableField, rules []*DisplayRule, lookup FieldLookup) (*RuleSet, error) {
	if f.Required || len(rules) == 0 {
		return nil, nil
	}

	initial := "hide"
	if f.ShowOnLoad {
		initial = "show"
	}

	rs := &RuleSet{
		TargetSelector: f.HolderSelector(),
		Conjunction:    conjunctionOperator(f.DisplayRulesConjunction),
		InitialState:   initial,
		ViewText:       initial,
		OppositeText:   oppositeState(initial),
	}

	for _, rule := range rules {
		watched, err := lookup(rule.ConditionFieldID)
		if err != nil {
			return nil, fmt.Errorf("resolving watched field %s: %w", rule.ConditionFieldID, err)
		}
		if watched == nil {
			// Watched field was deleted after the rule was configured.
			continue
		}

		selector := watched.InputSelector()
		if !containsString(rs.Selectors, selector) {
			rs.Selectors = append(rs.Selectors, selector)
		}
		event := MustKindBehavior(watched.Kind).Event
		if !containsString(rs.Events, event) {
			rs.Events = append(rs.Events, event)
		}
		rs.Operations = append(rs.Operations, Operation{
			Selector: selector,
			Operator: rule.Operator,
			Value:    rule.FieldValue,
		})
	}

	if len(rs.Selectors) == 0 {
		return nil, nil
	}
	return rs, nil
}

// conjunctionOperator maps the stored conjunction to the runtime's boolean
// operator. Anything that is not "or" combines with AND.
func conjunctionOperator(c Conjunction) string {
	if c == ConjunctionOr {
		return "||"
	}
	return "&&"
}

// oppositeState returns the other visibility state. The runtime flips the
// field to this state when the rules stop matching.
func oppositeState(state string) string {
	if state == "show" {
		return "hide"
	}
	return "show"
}

func containsString(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
